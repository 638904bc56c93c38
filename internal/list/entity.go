package list

import (
	"time"

	"github.com/google/uuid"
)

// InboxName is the well-known default list pulled calendar events land in.
const InboxName = "Inbox"

type TaskList struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	UserID    uuid.UUID `gorm:"column:user_id;not null" json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
