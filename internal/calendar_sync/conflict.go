package calendarsync

import (
	"time"

	"github.com/novado-app/novado-server/internal/task"
)

// Conflict policy is last-write-wins on timestamps only; there is no
// field-level merge. Exact timestamp ties go to the local side in both
// directions, which keeps a cycle deterministic and idempotent.

// RemoteWins reports whether a pulled remote version should overwrite the
// local task. A zero remoteUpdated (malformed or absent remote timestamp)
// never wins.
func RemoteWins(remoteUpdated, localUpdated time.Time) bool {
	if remoteUpdated.IsZero() {
		return false
	}
	return remoteUpdated.After(localUpdated)
}

// PushSkipReason classifies why a task is left out of the push phase.
type PushSkipReason int

const (
	PushEligible PushSkipReason = iota
	SkipNoDueDate
	SkipTerminalStatus
	SkipSyncDisabled
	SkipAlreadySynced
)

// ClassifyPush decides whether a task is a push candidate this cycle.
// A linked task whose updatedAt equals lastSyncedAt is already in sync and
// is not pushed again.
func ClassifyPush(t *task.Task) PushSkipReason {
	if t.DueDate == nil {
		return SkipNoDueDate
	}
	if t.Status.Terminal() {
		return SkipTerminalStatus
	}
	if !t.SyncToCalendar {
		return SkipSyncDisabled
	}
	if !t.Linked() {
		return PushEligible
	}
	if t.LastSyncedAt != nil && !t.UpdatedAt.After(*t.LastSyncedAt) {
		return SkipAlreadySynced
	}
	return PushEligible
}
