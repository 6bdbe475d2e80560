package domain

import (
	"errors"
	"time"
)

var (
	ErrDispatchNotFound   = errors.New("dispatch not found")
	ErrDispatchNotPending = errors.New("dispatch is not pending")

	// ErrDispatchNotInProgress is returned by Report when the dispatch has
	// already left IN_PROGRESS by the time the worker reports its outcome —
	// the timeout sweep or a shutdown release beat it there. Expected under
	// concurrent access, not a failure.
	ErrDispatchNotInProgress = errors.New("dispatch is not in progress")
)

// DispatchStatus is the JobDispatch state machine (spec §4.4):
// PENDING -> IN_PROGRESS -> {COMPLETED | FAILED | TIMEOUT}.
type DispatchStatus string

const (
	DispatchPending    DispatchStatus = "PENDING"
	DispatchInProgress DispatchStatus = "IN_PROGRESS"
	DispatchCompleted  DispatchStatus = "COMPLETED"
	DispatchFailed     DispatchStatus = "FAILED"
	DispatchTimeout    DispatchStatus = "TIMEOUT"
)

// Terminal reports whether s is one of the pipeline's terminal states.
func (s DispatchStatus) Terminal() bool {
	switch s {
	case DispatchCompleted, DispatchFailed, DispatchTimeout:
		return true
	default:
		return false
	}
}

// JobDispatch is one concrete execution attempt of a ScheduledJob.
type JobDispatch struct {
	ID          int64
	JobID       int64
	CreatedAt   time.Time
	ClaimedAt   *time.Time
	CompletedAt *time.Time
	Status      DispatchStatus

	// WorkerID is retained as a historical attribute even after the worker's
	// own registration is deleted (§9 open question, decided in DESIGN.md).
	WorkerID *string

	RetryCount   int
	ErrorMessage *string
}
