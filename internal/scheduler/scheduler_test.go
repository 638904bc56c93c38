package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/user"
)

type countingSync struct {
	batches atomic.Int32
	perUser atomic.Int32
	userErr error
}

func (c *countingSync) SyncAllUsers(context.Context) (int, int) {
	c.batches.Add(1)
	return 0, 0
}

func (c *countingSync) SyncUser(context.Context, *user.User) error {
	c.perUser.Add(1)
	return c.userErr
}

type countingReminders struct {
	checks atomic.Int32
}

func (c *countingReminders) CheckDueReminders(context.Context) {
	c.checks.Add(1)
}

func fastScheduler(syncRunner SyncRunner, reminders ReminderChecker) *Scheduler {
	s := NewScheduler(syncRunner, reminders)
	s.reminderInterval = 10 * time.Millisecond
	s.syncInterval = 10 * time.Millisecond
	s.syncStartupDelay = 5 * time.Millisecond
	return s
}

func TestStartStop(t *testing.T) {
	syncRunner := &countingSync{}
	reminders := &countingReminders{}
	s := fastScheduler(syncRunner, reminders)

	s.Start(context.Background())
	s.Start(context.Background()) // second Start is a no-op
	time.Sleep(60 * time.Millisecond)
	s.Stop()

	if got := reminders.checks.Load(); got < 2 {
		t.Errorf("reminder loop ran %d times, want at least 2", got)
	}
	if got := syncRunner.batches.Load(); got < 1 {
		t.Errorf("sync loop never ran after the startup delay")
	}

	// No further cycles after Stop returns.
	checksAtStop := reminders.checks.Load()
	batchesAtStop := syncRunner.batches.Load()
	time.Sleep(30 * time.Millisecond)
	if reminders.checks.Load() != checksAtStop || syncRunner.batches.Load() != batchesAtStop {
		t.Error("loops kept running after Stop")
	}

	s.Stop() // idempotent
}

func TestPanicDoesNotKillLoop(t *testing.T) {
	s := fastScheduler(&countingSync{}, &countingReminders{})

	calls := 0
	s.runCycle(context.Background(), "test cycle", func(context.Context) {
		calls++
		panic("boom")
	})
	s.runCycle(context.Background(), "test cycle", func(context.Context) {
		calls++
	})

	if calls != 2 {
		t.Errorf("second cycle did not run after a panic, calls = %d", calls)
	}
}

func TestSyncNow(t *testing.T) {
	u := &user.User{ID: uuid.New(), Email: "a@b.c"}

	t.Run("Success", func(t *testing.T) {
		syncRunner := &countingSync{}
		s := fastScheduler(syncRunner, &countingReminders{})
		if !s.SyncNow(context.Background(), u) {
			t.Error("expected success")
		}
		if syncRunner.perUser.Load() != 1 {
			t.Errorf("per-user sync ran %d times", syncRunner.perUser.Load())
		}
	})

	t.Run("Failure", func(t *testing.T) {
		syncRunner := &countingSync{userErr: errors.New("revoked")}
		s := fastScheduler(syncRunner, &countingReminders{})
		if s.SyncNow(context.Background(), u) {
			t.Error("expected failure to surface as false")
		}
	})
}
