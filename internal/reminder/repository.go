package reminder

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SubscriptionRepository interface {
	// FindByUser returns nil without error when the user has no
	// subscription on file.
	FindByUser(userID uuid.UUID) (*PushSubscription, error)
	Upsert(sub *PushSubscription) error
	DeleteByUser(userID uuid.UUID) error
}

type subscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{db: db}
}

func (r *subscriptionRepository) FindByUser(userID uuid.UUID) (*PushSubscription, error) {
	var sub PushSubscription
	if err := r.db.First(&sub, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

// Upsert keeps one subscription per user, replacing the endpoint and keys
// when the browser re-registers.
func (r *subscriptionRepository) Upsert(sub *PushSubscription) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"endpoint", "p256dh", "auth"}),
	}).Create(sub).Error
}

func (r *subscriptionRepository) DeleteByUser(userID uuid.UUID) error {
	return r.db.Delete(&PushSubscription{}, "user_id = ?", userID).Error
}
