package task

type TaskStatus string

const (
	TaskStatusScheduled  TaskStatus = "scheduled"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusDeleted    TaskStatus = "deleted"
	TaskStatusSkipped    TaskStatus = "skipped"
)

// Terminal reports whether the status permanently excludes the task from
// calendar pushes.
func (s TaskStatus) Terminal() bool {
	switch s {
	case TaskStatusCompleted, TaskStatusDeleted, TaskStatusSkipped:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityNone   TaskPriority = "none"
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// TaskOrigin records where a task was authored. Calendar-origin tasks are
// mirrors of remote events and are deleted outright when their source
// calendar stops being tracked; local tasks are only unlinked.
type TaskOrigin string

const (
	OriginLocal          TaskOrigin = "local"
	OriginGoogleCalendar TaskOrigin = "google_calendar"
)
