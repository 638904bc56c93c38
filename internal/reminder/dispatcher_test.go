package reminder

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/novado-app/novado-server/internal/task"
)

type stubTaskRepo struct {
	tasks   []*task.Task
	stamped []uuid.UUID
}

func (s *stubTaskRepo) Create(*task.Task) error           { return nil }
func (s *stubTaskRepo) Update(*task.Task) error           { return nil }
func (s *stubTaskRepo) Delete(uuid.UUID, uuid.UUID) error { return nil }
func (s *stubTaskRepo) FindByIdAndUserId(uuid.UUID, uuid.UUID) (*task.Task, error) {
	return nil, nil
}
func (s *stubTaskRepo) ListByUser(uuid.UUID) ([]*task.Task, error) { return nil, nil }
func (s *stubTaskRepo) FindByUserAndEventID(uuid.UUID, string) (*task.Task, error) {
	return nil, nil
}
func (s *stubTaskRepo) ListWithReminders() ([]*task.Task, error) {
	var out []*task.Task
	for _, t := range s.tasks {
		if t.Reminder.Enabled {
			out = append(out, t)
		}
	}
	return out, nil
}
func (s *stubTaskRepo) StampReminderSent(id uuid.UUID, at time.Time) error {
	s.stamped = append(s.stamped, id)
	for _, t := range s.tasks {
		if t.ID == id {
			stamp := at
			t.Reminder.LastSent = &stamp
		}
	}
	return nil
}
func (s *stubTaskRepo) MarkSynced(uuid.UUID, string, string, time.Time) error { return nil }
func (s *stubTaskRepo) ApplyRemoteUpdate(uuid.UUID, string, string, time.Time, *string, time.Time) error {
	return nil
}

type stubSubs struct {
	subs map[uuid.UUID]*PushSubscription
}

func (s *stubSubs) FindByUser(userID uuid.UUID) (*PushSubscription, error) {
	return s.subs[userID], nil
}
func (s *stubSubs) Upsert(*PushSubscription) error { return nil }
func (s *stubSubs) DeleteByUser(uuid.UUID) error   { return nil }

type captureSender struct {
	payloads []string
}

func (c *captureSender) Send(_ context.Context, _ *PushSubscription, payload []byte) error {
	c.payloads = append(c.payloads, string(payload))
	return nil
}

var checkNow = time.Date(2026, time.March, 10, 12, 0, 0, 0, time.UTC)

func reminderTask(userID uuid.UUID, due time.Time, minutesBefore int) *task.Task {
	d := due
	return &task.Task{
		ID:      uuid.New(),
		Title:   "Water the plants",
		UserID:  userID,
		DueDate: &d,
		Reminder: task.Reminder{
			Enabled:       true,
			NotifyDesktop: true,
			MinutesBefore: minutesBefore,
		},
	}
}

func testDispatcher(tasks *stubTaskRepo, subs *stubSubs, sender *captureSender) *Dispatcher {
	d := NewDispatcher(tasks, subs, sender)
	d.now = func() time.Time { return checkNow }
	return d
}

func TestCheckDueReminders(t *testing.T) {
	userID := uuid.New()
	withSub := &stubSubs{subs: map[uuid.UUID]*PushSubscription{
		userID: {UserID: userID, Endpoint: "https://push.example/sub"},
	}}

	t.Run("SendsInsideWindow", func(t *testing.T) {
		// Fires at due minus lead: 12:30:30 - 30m = 12:00:30, inside the
		// next-minute window.
		tk := reminderTask(userID, checkNow.Add(30*time.Minute+30*time.Second), 30)
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, withSub, sender).CheckDueReminders(context.Background())

		if len(sender.payloads) != 1 {
			t.Fatalf("expected one notification, got %d", len(sender.payloads))
		}
		payload := sender.payloads[0]
		if !strings.Contains(payload, "Water the plants") || !strings.Contains(payload, "30 minutes") {
			t.Errorf("payload missing task title or lead time: %s", payload)
		}
		if len(repo.stamped) != 1 || repo.stamped[0] != tk.ID {
			t.Errorf("lastSent was not stamped after send")
		}
	})

	t.Run("OutsideWindow", func(t *testing.T) {
		tk := reminderTask(userID, checkNow.Add(2*time.Hour), 30)
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, withSub, sender).CheckDueReminders(context.Background())

		if len(sender.payloads) != 0 {
			t.Errorf("reminder fired %s early", time.Hour+30*time.Minute)
		}
	})

	t.Run("DebounceSkipsRecentlySent", func(t *testing.T) {
		tk := reminderTask(userID, checkNow.Add(30*time.Minute+30*time.Second), 30)
		recent := checkNow.Add(-2 * time.Minute)
		tk.Reminder.LastSent = &recent
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, withSub, sender).CheckDueReminders(context.Background())

		if len(sender.payloads) != 0 {
			t.Errorf("reminder re-sent within the debounce interval")
		}
	})

	t.Run("DueTimeOverridesClock", func(t *testing.T) {
		// Due date is midnight; the 12:30 due time moves the fire moment to
		// exactly now.
		midnight := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)
		tk := reminderTask(userID, midnight, 30)
		clock := "12:30"
		tk.DueTime = &clock
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, withSub, sender).CheckDueReminders(context.Background())

		if len(sender.payloads) != 1 {
			t.Fatalf("expected one notification, got %d", len(sender.payloads))
		}
	})

	t.Run("NoSubscriptionIsSilent", func(t *testing.T) {
		tk := reminderTask(uuid.New(), checkNow.Add(30*time.Minute+30*time.Second), 30)
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, &stubSubs{subs: map[uuid.UUID]*PushSubscription{}}, sender).
			CheckDueReminders(context.Background())

		if len(sender.payloads) != 0 {
			t.Errorf("unexpected send without a subscription")
		}
		if len(repo.stamped) != 0 {
			t.Errorf("lastSent stamped without a send")
		}
	})

	t.Run("DesktopNotificationsDisabled", func(t *testing.T) {
		tk := reminderTask(userID, checkNow.Add(30*time.Minute+30*time.Second), 30)
		tk.Reminder.NotifyDesktop = false
		repo := &stubTaskRepo{tasks: []*task.Task{tk}}
		sender := &captureSender{}
		testDispatcher(repo, withSub, sender).CheckDueReminders(context.Background())

		if len(sender.payloads) != 0 {
			t.Errorf("reminder sent with desktop notifications off")
		}
	})
}
