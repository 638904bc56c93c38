package task

import (
	"time"

	"github.com/google/uuid"
)

// Reminder is embedded in Task. LastSent is the sole debounce mechanism for
// reminder notifications.
type Reminder struct {
	Enabled       bool       `json:"enabled"`
	MinutesBefore int        `json:"minutes_before"`
	NotifyDesktop bool       `gorm:"default:true" json:"notify_desktop"`
	NotifyMobile  bool       `json:"notify_mobile"`
	LastSent      *time.Time `json:"last_sent,omitempty"`
}

type Task struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description,omitempty"`
	UserID      uuid.UUID  `gorm:"column:user_id;not null" json:"user_id"`
	ListID      *uuid.UUID `gorm:"column:list_id" json:"list_id,omitempty"`

	// DueTime is a "HH:MM" wall-clock string in the user's timezone; nil
	// means the task is all-day.
	DueDate *time.Time `json:"due_date,omitempty"`
	DueTime *string    `json:"due_time,omitempty"`

	Priority TaskPriority `gorm:"default:none" json:"priority"`
	Status   TaskStatus   `gorm:"default:scheduled" json:"status"`
	Origin   TaskOrigin   `gorm:"default:local" json:"origin"`
	Tags     []string     `gorm:"serializer:json" json:"tags,omitempty"`

	Reminder Reminder `gorm:"embedded;embeddedPrefix:reminder_" json:"reminder"`

	// Google Calendar sync bookkeeping. GoogleEventID and GoogleCalendarID
	// are set together on the first successful push or pull; LastSyncedAt is
	// only ever written after a successful remote read or write.
	SyncToCalendar      bool       `json:"sync_to_calendar"`
	GoogleEventID       *string    `json:"google_event_id,omitempty"`
	GoogleCalendarID    *string    `json:"google_calendar_id,omitempty"`
	GoogleCalendarColor *string    `json:"google_calendar_color,omitempty"`
	SyncedWithGoogle    bool       `json:"synced_with_google"`
	LastSyncedAt        *time.Time `json:"last_synced_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Linked reports whether the task has ever been pushed to or pulled from a
// remote calendar.
func (t *Task) Linked() bool {
	return t.GoogleEventID != nil && *t.GoogleEventID != ""
}

// MarkSynced records a successful remote write or read in one step so the
// linkage fields and the sync watermark never diverge.
func (t *Task) MarkSynced(eventID, calendarID string, at time.Time) {
	t.GoogleEventID = &eventID
	t.GoogleCalendarID = &calendarID
	t.SyncedWithGoogle = true
	t.LastSyncedAt = &at
}

// Unlink drops the calendar linkage while keeping the task itself.
func (t *Task) Unlink() {
	t.GoogleEventID = nil
	t.GoogleCalendarID = nil
	t.GoogleCalendarColor = nil
	t.SyncedWithGoogle = false
	t.LastSyncedAt = nil
}
