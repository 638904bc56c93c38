package user

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID       uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	Username string    `gorm:"uniqueIndex;not null" json:"username"`
	Email    string    `gorm:"uniqueIndex;not null" json:"email"`

	// IANA zone name used for calendar time conversions. Empty means UTC.
	Timezone string `json:"timezone"`

	// Google Calendar link. Tokens are stored AES-GCM encrypted; both nil
	// means the account is not connected.
	GoogleAccessToken       *string    `gorm:"column:google_access_token" json:"-"`
	GoogleRefreshToken      *string    `gorm:"column:google_refresh_token" json:"-"`
	GoogleTokenExpiry       *time.Time `json:"-"`
	GoogleEmail             *string    `json:"google_email,omitempty"`
	GoogleConnectedAt       *time.Time `json:"google_connected_at,omitempty"`
	GoogleSelectedCalendars []string   `gorm:"serializer:json" json:"google_selected_calendars,omitempty"`

	// Watermark bounding the next pull window's lower edge.
	LastCalendarSync *time.Time `json:"last_calendar_sync,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasGoogleCalendar reports whether the user has a stored access token.
func (u *User) HasGoogleCalendar() bool {
	return u.GoogleAccessToken != nil && *u.GoogleAccessToken != ""
}

// SelectedCalendars returns the calendar selection, defaulting to primary
// when nothing was ever selected.
func (u *User) SelectedCalendars() []string {
	if len(u.GoogleSelectedCalendars) == 0 {
		return []string{"primary"}
	}
	return u.GoogleSelectedCalendars
}

// TimezoneOrUTC returns the configured zone name, defaulting to UTC.
func (u *User) TimezoneOrUTC() string {
	if u.Timezone == "" {
		return "UTC"
	}
	return u.Timezone
}
