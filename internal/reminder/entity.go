package reminder

import (
	"time"

	"github.com/google/uuid"
)

// PushSubscription stores one browser's Web Push endpoint per user. The
// endpoint and keys come straight from the PushManager subscription object
// the client registers.
type PushSubscription struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4()" json:"id"`
	UserID    uuid.UUID `gorm:"column:user_id;not null;uniqueIndex" json:"user_id"`
	Endpoint  string    `gorm:"not null" json:"endpoint"`
	P256dh    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	CreatedAt time.Time `json:"created_at"`
}
