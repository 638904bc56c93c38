package scheduler

import (
	"context"
	"runtime/debug"
	"sync"
	"time"

	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/user"
)

// SyncRunner is the per-user and batch sync entry point the loops drive.
type SyncRunner interface {
	SyncAllUsers(ctx context.Context) (synced, failed int)
	SyncUser(ctx context.Context, u *user.User) error
}

// ReminderChecker scans for reminders entering their due window.
type ReminderChecker interface {
	CheckDueReminders(ctx context.Context)
}

const (
	defaultReminderInterval = time.Minute
	defaultSyncInterval     = 5 * time.Minute
	defaultSyncStartupDelay = 30 * time.Second
)

// Scheduler hosts the two background loops of the server process: a
// once-a-minute reminder scan and a five-minute bidirectional calendar sync.
// Stop cancels both loops and waits for any in-flight cycle to unwind.
type Scheduler struct {
	sync      SyncRunner
	reminders ReminderChecker

	reminderInterval time.Duration
	syncInterval     time.Duration
	syncStartupDelay time.Duration

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

func NewScheduler(syncRunner SyncRunner, reminders ReminderChecker) *Scheduler {
	return &Scheduler{
		sync:             syncRunner,
		reminders:        reminders,
		reminderInterval: defaultReminderInterval,
		syncInterval:     defaultSyncInterval,
		syncStartupDelay: defaultSyncStartupDelay,
	}
}

// Start launches both loops. Calling Start on a running scheduler is a no-op.
func (s *Scheduler) Start(ctx context.Context) {
	log := config.WithContext(ctx)

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		log.Warn("Scheduler already running")
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	s.running = true
	s.cancel = cancel
	s.mu.Unlock()

	s.wg.Add(2)
	go s.runReminderLoop(loopCtx)
	go s.runSyncLoop(loopCtx)

	log.Info("Started reminder and sync scheduler")
}

// Stop cancels both loops and blocks until they have exited.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
	config.WithContext(context.Background()).Info("Stopped scheduler")
}

func (s *Scheduler) runReminderLoop(ctx context.Context) {
	defer s.wg.Done()

	for {
		s.runCycle(ctx, "reminder check", func(ctx context.Context) {
			s.reminders.CheckDueReminders(ctx)
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.reminderInterval):
		}
	}
}

func (s *Scheduler) runSyncLoop(ctx context.Context) {
	defer s.wg.Done()

	// Let startup settle before the first full sync.
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.syncStartupDelay):
	}

	for {
		s.runCycle(ctx, "calendar sync", func(ctx context.Context) {
			s.sync.SyncAllUsers(ctx)
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(s.syncInterval):
		}
	}
}

// runCycle shields the loop from a panicking cycle body; the loop sleeps and
// retries on the next interval regardless.
func (s *Scheduler) runCycle(ctx context.Context, name string, fn func(context.Context)) {
	defer func() {
		if r := recover(); r != nil {
			config.WithContext(ctx).Errorf("Panic in %s: %v\n%s", name, r, debug.Stack())
		}
	}()
	fn(ctx)
}

// SyncNow runs an immediate single-user cycle, bypassing the periodic
// schedule, and reports success as a boolean for the request layer. The sync
// runner's own per-user guard refuses overlap with a periodic cycle, which
// surfaces here as false.
func (s *Scheduler) SyncNow(ctx context.Context, u *user.User) bool {
	if err := s.sync.SyncUser(ctx, u); err != nil {
		config.WithContext(ctx).WithError(err).Warnf("On-demand sync failed for user %s", u.Email)
		return false
	}
	return true
}
