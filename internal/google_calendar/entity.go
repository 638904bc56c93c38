package googlecalendar

import (
	"time"

	"github.com/google/uuid"
)

// OAuthState is a short-lived record tying an authorization redirect back to
// the user who initiated it.
type OAuthState struct {
	State     string    `gorm:"primaryKey" json:"state"`
	UserID    uuid.UUID `gorm:"column:user_id;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
}

// CalendarInfo is the route-layer view of one remote calendar.
type CalendarInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Primary  bool   `json:"primary"`
	Color    string `json:"color"`
	Selected bool   `json:"selected"`
}

// StatusResponse reports the connection state of a user's Google account.
type StatusResponse struct {
	Connected    bool    `json:"connected"`
	Email        *string `json:"email,omitempty"`
	Configured   bool    `json:"configured"`
	TokenExpired bool    `json:"token_expired"`
	Warning      string  `json:"warning,omitempty"`
}

const defaultCalendarColor = "#4772fa"
