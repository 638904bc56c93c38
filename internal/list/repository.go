package list

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ListRepository interface {
	FindByUserAndName(userID uuid.UUID, name string) (*TaskList, error)
}

type listRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) ListRepository {
	return &listRepository{db: db}
}

func (r *listRepository) FindByUserAndName(userID uuid.UUID, name string) (*TaskList, error) {
	var l TaskList
	if err := r.db.First(&l, "user_id = ? AND name = ?", userID, name).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}
