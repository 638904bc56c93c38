package googlecalendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/novado-app/novado-server/internal/config"
	"github.com/novado-app/novado-server/internal/task"
	gcal "google.golang.org/api/calendar/v3"
)

var ErrMissingDueDate = errors.New("task must have a due date to sync to calendar")

const (
	naiveTimeLayout = "2006-01-02T15:04:05"
	dateOnlyLayout  = "2006-01-02"

	// Default reminder lead when a task enables reminders without a lead time.
	defaultReminderMinutes = 30
)

// Google Calendar color ids by priority: red, yellow, green, blue.
var priorityColors = map[task.TaskPriority]string{
	task.TaskPriorityHigh:   "11",
	task.TaskPriorityMedium: "5",
	task.TaskPriorityLow:    "10",
	task.TaskPriorityNone:   "7",
}

var priorityIcons = map[task.TaskPriority]string{
	task.TaskPriorityHigh:   "🔴",
	task.TaskPriorityMedium: "🟡",
	task.TaskPriorityLow:    "🟢",
}

// loadLocation resolves an IANA zone name, falling back to UTC on anything
// unrecognized. Returns the effective zone name alongside the location so
// event bodies never carry a zone the remote service would reject.
func loadLocation(ctx context.Context, name string) (*time.Location, string) {
	if name == "" {
		return time.UTC, "UTC"
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		config.WithContext(ctx).Warnf("Unknown timezone %q, falling back to UTC", name)
		return time.UTC, "UTC"
	}
	return loc, name
}

// BuildEvent converts a task to the remote event representation.
//
// A task without a due time becomes a single-day all-day event. A timed task
// becomes a one-hour event anchored at the due date and wall-clock due time
// in the user's timezone; start and end carry the zone explicitly so the
// remote service stores the intended wall-clock time.
func BuildEvent(ctx context.Context, t *task.Task, userTimezone string) (*gcal.Event, error) {
	if t.DueDate == nil {
		return nil, ErrMissingDueDate
	}

	summary := t.Title
	if summary == "" {
		summary = "Untitled Task"
	}

	event := &gcal.Event{
		Summary:     summary,
		Description: buildDescription(t),
		ColorId:     colorForPriority(t.Priority),
	}

	if t.DueTime == nil || *t.DueTime == "" {
		dateStr := t.DueDate.Format(dateOnlyLayout)
		event.Start = &gcal.EventDateTime{Date: dateStr}
		event.End = &gcal.EventDateTime{Date: dateStr}
	} else {
		loc, zoneName := loadLocation(ctx, userTimezone)

		hours, minutes := parseClock(*t.DueTime)
		start := time.Date(t.DueDate.Year(), t.DueDate.Month(), t.DueDate.Day(), hours, minutes, 0, 0, loc)
		end := start.Add(time.Hour)

		event.Start = &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: zoneName,
		}
		event.End = &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: zoneName,
		}
	}

	if t.Reminder.Enabled && t.Reminder.NotifyMobile {
		minutesBefore := t.Reminder.MinutesBefore
		if minutesBefore <= 0 {
			minutesBefore = defaultReminderMinutes
		}
		event.Reminders = &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "popup", Minutes: int64(minutesBefore)},
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}

	return event, nil
}

func buildDescription(t *task.Task) string {
	var b strings.Builder
	if t.Description != "" {
		b.WriteString(t.Description)
		b.WriteString("\n\n---\n")
	}
	b.WriteString("📋 Created in NovaDo\n")

	if t.Priority != "" && t.Priority != task.TaskPriorityNone {
		b.WriteString(fmt.Sprintf("Priority: %s %s\n", priorityIcons[t.Priority], titleCase(string(t.Priority))))
	}
	if len(t.Tags) > 0 {
		b.WriteString(fmt.Sprintf("Tags: %s\n", strings.Join(t.Tags, ", ")))
	}
	return b.String()
}

func colorForPriority(p task.TaskPriority) string {
	if color, ok := priorityColors[p]; ok {
		return color
	}
	return priorityColors[task.TaskPriorityNone]
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// parseClock parses a "HH:MM" wall-clock string, defaulting to noon on
// malformed input.
func parseClock(s string) (int, int) {
	var hours, minutes int
	if _, err := fmt.Sscanf(s, "%d:%d", &hours, &minutes); err != nil {
		return 12, 0
	}
	if hours < 0 || hours > 23 || minutes < 0 || minutes > 59 {
		return 12, 0
	}
	return hours, minutes
}

// EventTimeToLocal normalizes a remote event timestamp to the user's local
// calendar date and a "HH:MM" time-of-day string.
//
// Three input shapes are handled: UTC-suffixed ("...Z"), explicit offset
// ("...+05:30"), and bare naive timestamps with no zone marker. The naive
// shape is interpreted as already being in the user's timezone, which is
// what third-party calendar feeds emitting local timestamps expect.
func EventTimeToLocal(ctx context.Context, value, userTimezone string) (time.Time, string, error) {
	loc, _ := loadLocation(ctx, userTimezone)

	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		t, err = time.ParseInLocation(naiveTimeLayout, value, loc)
		if err != nil {
			return time.Time{}, "", fmt.Errorf("unparseable event time %q: %w", value, err)
		}
	}

	local := t.In(loc)
	dateOnly := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
	return dateOnly, local.Format("15:04"), nil
}

// ParseAllDayDate parses a date-only event boundary ("YYYY-MM-DD").
func ParseAllDayDate(value string) (time.Time, error) {
	return time.Parse(dateOnlyLayout, value)
}

// ParseEventUpdated parses the remote last-modified timestamp. A malformed
// value yields the zero time, which the conflict resolver treats as "remote
// not newer" so one bad timestamp never fails a cycle.
func ParseEventUpdated(ctx context.Context, value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		config.WithContext(ctx).Warnf("Unparseable event updated timestamp %q", value)
		return time.Time{}
	}
	return t.UTC()
}
