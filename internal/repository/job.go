package repository

import (
	"context"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// ListJobsInput filters the job listing used by the admin read surface.
type ListJobsInput struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

// JobRepository persists ScheduledJob definitions and implements the
// dispatch-cycle claim described in spec §4.2.1.
type JobRepository interface {
	Create(ctx context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error)
	GetByID(ctx context.Context, id int64) (*domain.ScheduledJob, error)
	List(ctx context.Context, input ListJobsInput) ([]*domain.ScheduledJob, error)
	Update(ctx context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error

	// RunNow sets next_run = now on the job so the next dispatch cycle picks
	// it up, regardless of schedule_type (spec §6, "Run Now").
	RunNow(ctx context.Context, id int64, now time.Time) error

	// DispatchDue selects up to limit active jobs whose next_run has arrived
	// and whose dispatch lock has expired, row-locking with skip-locked
	// semantics, computes each one's next run via computeNext, and advances
	// next_run/last_dispatched_at/dispatch_lock_until — all within a single
	// transaction that also inserts the resulting JobDispatch rows.
	DispatchDue(ctx context.Context, now time.Time, limit int, lockDuration time.Duration, computeNext func(*domain.ScheduledJob) (*time.Time, error)) ([]*domain.JobDispatch, error)
}
