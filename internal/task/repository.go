package task

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrNotFound = errors.New("task not found")

type TaskRepository interface {
	Create(t *Task) error
	Update(t *Task) error
	Delete(id, userID uuid.UUID) error
	FindByIdAndUserId(id, userID uuid.UUID) (*Task, error)
	ListByUser(userID uuid.UUID) ([]*Task, error)

	// FindByUserAndEventID resolves the local mirror of a remote event.
	// Returns nil without error when the event was never pulled or pushed.
	FindByUserAndEventID(userID uuid.UUID, eventID string) (*Task, error)

	// ListWithReminders returns tasks across all users with reminders
	// enabled; the reminder loop filters the due window in memory.
	ListWithReminders() ([]*Task, error)

	StampReminderSent(id uuid.UUID, at time.Time) error

	// MarkSynced records a successful push without touching updated_at;
	// bumping it would make every pushed task look locally modified again.
	MarkSynced(id uuid.UUID, eventID, calendarID string, at time.Time) error

	// ApplyRemoteUpdate overwrites local content with the remote version
	// after the conflict resolver decided the remote side wins. updated_at
	// and last_synced_at are both set to the sync instant so the task reads
	// as in-sync next cycle.
	ApplyRemoteUpdate(id uuid.UUID, title, description string, dueDate time.Time, dueTime *string, at time.Time) error
}

type taskRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(t *Task) error {
	return r.db.Create(t).Error
}

func (r *taskRepository) Update(t *Task) error {
	return r.db.Save(t).Error
}

func (r *taskRepository) Delete(id, userID uuid.UUID) error {
	res := r.db.Delete(&Task{}, "id = ? AND user_id = ?", id, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *taskRepository) FindByIdAndUserId(id, userID uuid.UUID) (*Task, error) {
	var t Task
	if err := r.db.First(&t, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) ListByUser(userID uuid.UUID) ([]*Task, error) {
	var tasks []*Task
	if err := r.db.Where("user_id = ?", userID).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) FindByUserAndEventID(userID uuid.UUID, eventID string) (*Task, error) {
	var t Task
	if err := r.db.First(&t, "user_id = ? AND google_event_id = ?", userID, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &t, nil
}

func (r *taskRepository) ListWithReminders() ([]*Task, error) {
	var tasks []*Task
	if err := r.db.Where("reminder_enabled = ?", true).Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

func (r *taskRepository) StampReminderSent(id uuid.UUID, at time.Time) error {
	return r.db.Model(&Task{}).Where("id = ?", id).
		Update("reminder_last_sent", at).Error
}

func (r *taskRepository) MarkSynced(id uuid.UUID, eventID, calendarID string, at time.Time) error {
	return r.db.Model(&Task{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"google_event_id":    eventID,
		"google_calendar_id": calendarID,
		"synced_with_google": true,
		"last_synced_at":     at,
	}).Error
}

func (r *taskRepository) ApplyRemoteUpdate(id uuid.UUID, title, description string, dueDate time.Time, dueTime *string, at time.Time) error {
	return r.db.Model(&Task{}).Where("id = ?", id).UpdateColumns(map[string]any{
		"title":          title,
		"description":    description,
		"due_date":       dueDate,
		"due_time":       dueTime,
		"last_synced_at": at,
		"updated_at":     at,
	}).Error
}
