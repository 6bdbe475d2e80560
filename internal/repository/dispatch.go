package repository

import (
	"context"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// ListDispatchesInput filters the dispatch listing used by the admin read surface.
type ListDispatchesInput struct {
	JobID  *int64
	Status domain.DispatchStatus
	Limit  int
	Offset int
}

// DispatchRepository persists JobDispatch rows and implements the claim CAS,
// timeout sweep, and cleanup sub-tasks described in spec §4.2 and §4.3.
type DispatchRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.JobDispatch, error)
	List(ctx context.Context, input ListDispatchesInput) ([]*domain.JobDispatch, error)

	// Claim selects the oldest PENDING dispatch and attempts the conditional
	// UPDATE described in spec §4.3.1. It returns (nil, nil) when no PENDING
	// dispatch exists, and (nil, ErrDispatchNotPending) when another worker
	// won the race on the one it found.
	Claim(ctx context.Context, workerID string) (*domain.JobDispatch, error)

	// Report records a dispatch's terminal outcome, its execution log, and
	// the owning worker's post-execution liveness update (status=IDLE,
	// current_job_id=NULL, jobs_processed+1) in a single transaction, per
	// spec §4.3.3.
	Report(ctx context.Context, dispatchID int64, workerID string, status domain.DispatchStatus, errMsg *string, log *domain.JobExecutionLog) error

	// ReleaseOwnedByWorker resets any dispatch still IN_PROGRESS and owned by
	// workerID back to PENDING, clearing worker_id and claimed_at (worker
	// graceful shutdown, spec §4.3 "Graceful shutdown").
	ReleaseOwnedByWorker(ctx context.Context, workerID string) (int, error)

	// SweepTimeouts marks IN_PROGRESS dispatches claimed before cutoff as
	// TIMEOUT, inserts a matching JobExecutionLog for each, and — when
	// retry_count < maxRetries — inserts a fresh PENDING retry row (spec
	// §4.2.2). A dispatch is only reclaimed when its owning worker is
	// actually gone: no worker_registrations row, or last_heartbeat older
	// than heartbeatCutoff. scheduler.timeout_threshold and worker.job_timeout
	// are independent tunables (spec §6); without this liveness check a
	// worker still alive and executing past cutoff would have its dispatch
	// reclaimed and retried, producing a duplicate execution of the same job.
	SweepTimeouts(ctx context.Context, cutoff, heartbeatCutoff time.Time, maxRetries int, limit int) (int, error)

	// Cleanup deletes terminal dispatches completed before cutoff (spec
	// §4.2.4). Execution logs are not deleted.
	Cleanup(ctx context.Context, cutoff time.Time, limit int) (int, error)
}
