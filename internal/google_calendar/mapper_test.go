package googlecalendar_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	googlecalendar "github.com/novado-app/novado-server/internal/google_calendar"
	"github.com/novado-app/novado-server/internal/task"
)

func datePtr(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &t
}

func strPtr(s string) *string { return &s }

func TestBuildEvent(t *testing.T) {
	t.Run("MissingDueDate", func(t *testing.T) {
		_, err := googlecalendar.BuildEvent(context.Background(), &task.Task{Title: "no date"}, "UTC")
		if !errors.Is(err, googlecalendar.ErrMissingDueDate) {
			t.Fatalf("expected ErrMissingDueDate, got %v", err)
		}
	})

	t.Run("AllDay", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:   "Buy groceries",
			DueDate: datePtr(2026, time.March, 10),
		}, "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		if ev.Start.Date != "2026-03-10" || ev.End.Date != "2026-03-10" {
			t.Errorf("all-day event should span a single date, got start %q end %q", ev.Start.Date, ev.End.Date)
		}
		if ev.Start.DateTime != "" {
			t.Errorf("all-day event should not carry a DateTime, got %q", ev.Start.DateTime)
		}
	})

	t.Run("TimedKeepsWallClock", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:   "Standup",
			DueDate: datePtr(2026, time.March, 10),
			DueTime: strPtr("09:30"),
		}, "America/Denver")
		if err != nil {
			t.Fatal(err)
		}

		loc, err := time.LoadLocation("America/Denver")
		if err != nil {
			t.Skip("tzdata unavailable")
		}
		start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
		if err != nil {
			t.Fatalf("unparseable start %q: %v", ev.Start.DateTime, err)
		}
		if got := start.In(loc).Format("15:04"); got != "09:30" {
			t.Errorf("start wall clock = %s, want 09:30", got)
		}
		end, _ := time.Parse(time.RFC3339, ev.End.DateTime)
		if end.Sub(start) != time.Hour {
			t.Errorf("timed event should last one hour, got %s", end.Sub(start))
		}
		if ev.Start.TimeZone != "America/Denver" {
			t.Errorf("start timezone = %q, want America/Denver", ev.Start.TimeZone)
		}
	})

	t.Run("UnknownTimezoneFallsBackToUTC", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:   "Call",
			DueDate: datePtr(2026, time.March, 10),
			DueTime: strPtr("08:00"),
		}, "Not/AZone")
		if err != nil {
			t.Fatal(err)
		}
		if ev.Start.TimeZone != "UTC" {
			t.Errorf("timezone = %q, want UTC fallback", ev.Start.TimeZone)
		}
		start, _ := time.Parse(time.RFC3339, ev.Start.DateTime)
		if got := start.UTC().Format("15:04"); got != "08:00" {
			t.Errorf("start = %s UTC, want 08:00", got)
		}
	})

	t.Run("DescriptionFooter", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:       "Report",
			Description: "quarterly numbers",
			Priority:    task.TaskPriorityHigh,
			Tags:        []string{"work", "finance"},
			DueDate:     datePtr(2026, time.March, 10),
		}, "UTC")
		if err != nil {
			t.Fatal(err)
		}
		for _, want := range []string{"quarterly numbers", "Created in NovaDo", "Priority: 🔴 High", "Tags: work, finance"} {
			if !strings.Contains(ev.Description, want) {
				t.Errorf("description missing %q:\n%s", want, ev.Description)
			}
		}
		if ev.ColorId != "11" {
			t.Errorf("high priority color = %q, want 11", ev.ColorId)
		}
	})

	t.Run("ReminderOverride", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:    "Dentist",
			DueDate:  datePtr(2026, time.March, 10),
			DueTime:  strPtr("14:00"),
			Reminder: task.Reminder{Enabled: true, NotifyMobile: true},
		}, "UTC")
		if err != nil {
			t.Fatal(err)
		}
		if ev.Reminders == nil {
			t.Fatal("expected a reminder override block")
		}
		if ev.Reminders.UseDefault {
			t.Error("override should disable default reminders")
		}
		if len(ev.Reminders.Overrides) != 1 || ev.Reminders.Overrides[0].Minutes != 30 {
			t.Errorf("expected a single 30-minute popup override, got %+v", ev.Reminders.Overrides)
		}
	})

	t.Run("NoReminderWhenDisabled", func(t *testing.T) {
		ev, err := googlecalendar.BuildEvent(context.Background(), &task.Task{
			Title:   "Quiet",
			DueDate: datePtr(2026, time.March, 10),
		}, "UTC")
		if err != nil {
			t.Fatal(err)
		}
		if ev.Reminders != nil {
			t.Errorf("expected no reminder block, got %+v", ev.Reminders)
		}
	})
}

func TestEventTimeToLocal(t *testing.T) {
	t.Run("UTCSuffix", func(t *testing.T) {
		date, clock, err := googlecalendar.EventTimeToLocal(context.Background(), "2026-03-10T16:30:00Z", "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		if clock != "10:30" {
			t.Errorf("clock = %s, want 10:30", clock)
		}
		if want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC); !date.Equal(want) {
			t.Errorf("date = %s, want %s", date, want)
		}
	})

	t.Run("ExplicitOffset", func(t *testing.T) {
		_, clock, err := googlecalendar.EventTimeToLocal(context.Background(), "2026-03-10T16:30:00+05:30", "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		if clock != "05:00" {
			t.Errorf("clock = %s, want 05:00", clock)
		}
	})

	t.Run("NaiveIsUserLocal", func(t *testing.T) {
		date, clock, err := googlecalendar.EventTimeToLocal(context.Background(), "2026-03-10T09:00:00", "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		if clock != "09:00" {
			t.Errorf("clock = %s, want 09:00", clock)
		}
		if want := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC); !date.Equal(want) {
			t.Errorf("date = %s, want %s", date, want)
		}
	})

	// A naive timestamp and its UTC equivalent must land on the same local
	// wall-clock time.
	t.Run("NaiveMatchesUTCEquivalent", func(t *testing.T) {
		_, naive, err := googlecalendar.EventTimeToLocal(context.Background(), "2026-03-10T09:00:00", "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		_, suffixed, err := googlecalendar.EventTimeToLocal(context.Background(), "2026-03-10T15:00:00Z", "America/Denver")
		if err != nil {
			t.Fatal(err)
		}
		if naive != suffixed {
			t.Errorf("naive gave %s, UTC equivalent gave %s", naive, suffixed)
		}
	})

	t.Run("Malformed", func(t *testing.T) {
		if _, _, err := googlecalendar.EventTimeToLocal(context.Background(), "next tuesday", "UTC"); err == nil {
			t.Error("expected an error for an unparseable value")
		}
	})
}

func TestParseEventUpdated(t *testing.T) {
	if got := googlecalendar.ParseEventUpdated(context.Background(), "2026-03-10T12:00:00.000Z"); got.IsZero() {
		t.Error("valid timestamp should not parse to zero")
	}
	if got := googlecalendar.ParseEventUpdated(context.Background(), "garbage"); !got.IsZero() {
		t.Errorf("malformed timestamp should parse to zero, got %s", got)
	}
	if got := googlecalendar.ParseEventUpdated(context.Background(), ""); !got.IsZero() {
		t.Errorf("empty timestamp should parse to zero, got %s", got)
	}
}
