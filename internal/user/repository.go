package user

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	Create(u *User) error
	GetByID(id string) (*User, error)
	GetByEmail(email string) (*User, error)
	Update(u *User) error

	// ListGoogleConnected returns every user with a stored access token,
	// the population the periodic sync loop iterates over.
	ListGoogleConnected() ([]*User, error)

	UpdateGoogleTokens(id uuid.UUID, accessToken string, refreshToken *string, expiry *time.Time) error
	ClearGoogleCredentials(id uuid.UUID) error
	SetSelectedCalendars(id uuid.UUID, calendarIDs []string) error
	SetLastCalendarSync(id uuid.UUID, at time.Time) error
}

type userRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(u *User) error {
	return r.db.Create(u).Error
}

func (r *userRepository) GetByID(id string) (*User, error) {
	var u User
	if err := r.db.First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) GetByEmail(email string) (*User, error) {
	var u User
	if err := r.db.First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) Update(u *User) error {
	return r.db.Save(u).Error
}

func (r *userRepository) ListGoogleConnected() ([]*User, error) {
	var users []*User
	if err := r.db.
		Where("google_access_token IS NOT NULL AND google_access_token <> ''").
		Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *userRepository) UpdateGoogleTokens(id uuid.UUID, accessToken string, refreshToken *string, expiry *time.Time) error {
	updates := map[string]any{
		"google_access_token": accessToken,
		"google_token_expiry": expiry,
	}
	// A refresh response only rotates the refresh token sometimes; never
	// overwrite a stored one with nil.
	if refreshToken != nil {
		updates["google_refresh_token"] = *refreshToken
	}
	return r.db.Model(&User{}).Where("id = ?", id).Updates(updates).Error
}

func (r *userRepository) ClearGoogleCredentials(id uuid.UUID) error {
	return r.db.Model(&User{}).Where("id = ?", id).Updates(map[string]any{
		"google_access_token":       nil,
		"google_refresh_token":      nil,
		"google_token_expiry":       nil,
		"google_email":              nil,
		"google_connected_at":       nil,
		"google_selected_calendars": nil,
		"last_calendar_sync":        nil,
	}).Error
}

func (r *userRepository) SetSelectedCalendars(id uuid.UUID, calendarIDs []string) error {
	return r.db.Model(&User{}).Where("id = ?", id).
		Update("google_selected_calendars", calendarIDs).Error
}

func (r *userRepository) SetLastCalendarSync(id uuid.UUID, at time.Time) error {
	return r.db.Model(&User{}).Where("id = ?", id).
		Update("last_calendar_sync", at).Error
}
