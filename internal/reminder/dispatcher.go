package reminder

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/task"
)

const (
	dueWindow            = time.Minute
	debounceInterval     = 5 * time.Minute
	defaultMinutesBefore = 30
)

type notificationAction struct {
	Action string `json:"action"`
	Title  string `json:"title"`
}

type notificationData struct {
	TaskID string `json:"taskId"`
	Type   string `json:"type"`
}

type notificationPayload struct {
	Title              string               `json:"title"`
	Body               string               `json:"body"`
	Icon               string               `json:"icon"`
	Badge              string               `json:"badge"`
	Tag                string               `json:"tag"`
	Data               notificationData     `json:"data"`
	RequireInteraction bool                 `json:"requireInteraction"`
	Actions            []notificationAction `json:"actions"`
}

// Dispatcher scans for reminders entering their due window and hands them to
// the push sender. The lastSent stamp is the only debounce; a crash between
// send and stamp can repeat a notification on the next cycle.
type Dispatcher struct {
	tasks  task.TaskRepository
	subs   SubscriptionRepository
	sender Sender
	now    func() time.Time
}

func NewDispatcher(tasks task.TaskRepository, subs SubscriptionRepository, sender Sender) *Dispatcher {
	return &Dispatcher{
		tasks:  tasks,
		subs:   subs,
		sender: sender,
		now:    time.Now,
	}
}

// CheckDueReminders sends a notification for every reminder whose fire time
// falls within the next minute. Per-task failures are logged and skipped.
func (d *Dispatcher) CheckDueReminders(ctx context.Context) {
	log := config.WithContext(ctx)
	now := d.now().UTC()
	horizon := now.Add(dueWindow)

	all, err := d.tasks.ListWithReminders()
	if err != nil {
		log.WithError(err).Error("Failed to list tasks with reminders")
		return
	}

	var due []*task.Task
	for _, t := range all {
		remindAt, ok := reminderTime(t)
		if !ok {
			continue
		}
		if t.Reminder.LastSent != nil && now.Sub(*t.Reminder.LastSent) < debounceInterval {
			continue
		}
		if remindAt.Before(now) || remindAt.After(horizon) {
			continue
		}
		due = append(due, t)
	}

	if len(due) == 0 {
		return
	}

	log.Infof("Found %d tasks with reminders due", len(due))
	for _, t := range due {
		d.sendReminder(ctx, t)
	}
}

func (d *Dispatcher) sendReminder(ctx context.Context, t *task.Task) {
	log := config.WithContext(ctx)

	sub, err := d.subs.FindByUser(t.UserID)
	if err != nil {
		log.WithError(err).Warnf("Failed to look up push subscription for user %s", t.UserID)
		return
	}
	if sub == nil {
		log.Debugf("No push subscription for user %s", t.UserID)
		return
	}

	minutesBefore := t.Reminder.MinutesBefore
	if minutesBefore <= 0 {
		minutesBefore = defaultMinutesBefore
	}

	payload, err := json.Marshal(notificationPayload{
		Title: "⏰ Task Reminder",
		Body:  fmt.Sprintf("%q is due in %d minutes", t.Title, minutesBefore),
		Icon:  "/favicon.ico",
		Badge: "/favicon.ico",
		Tag:   "task-reminder-" + t.ID.String(),
		Data: notificationData{
			TaskID: t.ID.String(),
			Type:   "task_reminder",
		},
		RequireInteraction: true,
		Actions: []notificationAction{
			{Action: "complete", Title: "✓ Done"},
			{Action: "snooze", Title: "⏰ Snooze"},
			{Action: "open", Title: "Open"},
		},
	})
	if err != nil {
		log.WithError(err).Error("Failed to encode reminder payload")
		return
	}

	if err := d.sender.Send(ctx, sub, payload); err != nil {
		log.WithError(err).Warnf("Failed to send notification for task %s", t.ID)
		return
	}

	if err := d.tasks.StampReminderSent(t.ID, d.now().UTC()); err != nil {
		log.WithError(err).Error("Failed to stamp reminder as sent")
	}

	log.Infof("Sent reminder for task: %s", t.Title)
}

// reminderTime computes when a task's reminder should fire. The due time
// string overrides the clock portion of the due date; without one the
// reminder anchors to midnight.
func reminderTime(t *task.Task) (time.Time, bool) {
	if !t.Reminder.Enabled || !t.Reminder.NotifyDesktop || t.DueDate == nil {
		return time.Time{}, false
	}

	dueAt := t.DueDate.UTC()
	if t.DueTime != nil {
		if h, m, err := parseClock(*t.DueTime); err == nil {
			dueAt = time.Date(dueAt.Year(), dueAt.Month(), dueAt.Day(), h, m, 0, 0, time.UTC)
		}
	}

	minutesBefore := t.Reminder.MinutesBefore
	if minutesBefore <= 0 {
		minutesBefore = defaultMinutesBefore
	}
	return dueAt.Add(-time.Duration(minutesBefore) * time.Minute), true
}

func parseClock(value string) (int, int, error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid clock value %q", value)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, err
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, err
	}
	return h, m, nil
}
