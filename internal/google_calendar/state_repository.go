package googlecalendar

import (
	"errors"

	"gorm.io/gorm"
)

type StateRepository interface {
	Create(s *OAuthState) error

	// Consume fetches and deletes a state record in one step; returns nil
	// when the state is unknown (or already consumed).
	Consume(state string) (*OAuthState, error)
}

type stateRepository struct {
	db *gorm.DB
}

func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepository{db: db}
}

func (r *stateRepository) Create(s *OAuthState) error {
	return r.db.Create(s).Error
}

func (r *stateRepository) Consume(state string) (*OAuthState, error) {
	var s OAuthState
	if err := r.db.First(&s, "state = ?", state).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.db.Delete(&OAuthState{}, "state = ?", state).Error; err != nil {
		return nil, err
	}
	return &s, nil
}
