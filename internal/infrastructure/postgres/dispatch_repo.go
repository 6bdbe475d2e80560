package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type DispatchRepository struct {
	pool *pgxpool.Pool
}

func NewDispatchRepository(pool *pgxpool.Pool) *DispatchRepository {
	return &DispatchRepository{pool: pool}
}

func (r *DispatchRepository) GetByID(ctx context.Context, id int64) (*domain.JobDispatch, error) {
	query := `
		SELECT id, job_id, created_at, claimed_at, completed_at, status,
		       worker_id, retry_count, error_message
		FROM job_dispatches
		WHERE id = $1`
	return scanDispatch(r.pool.QueryRow(ctx, query, id))
}

func (r *DispatchRepository) List(ctx context.Context, input repository.ListDispatchesInput) ([]*domain.JobDispatch, error) {
	query := `
		SELECT id, job_id, created_at, claimed_at, completed_at, status,
		       worker_id, retry_count, error_message
		FROM job_dispatches
		WHERE ($1::bigint IS NULL OR job_id = $1)
		  AND ($2::text = '' OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4`

	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, query, input.JobID, string(input.Status), limit, input.Offset)
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	defer rows.Close()

	var dispatches []*domain.JobDispatch
	for rows.Next() {
		d, err := scanDispatch(rows)
		if err != nil {
			return nil, err
		}
		dispatches = append(dispatches, d)
	}
	return dispatches, rows.Err()
}

// Claim implements the claim step of spec §4.3.1: select the oldest PENDING
// dispatch, then attempt a conditional UPDATE relying solely on the
// status='PENDING' predicate for atomicity — no explicit row lock needed,
// per §5's locking discipline.
func (r *DispatchRepository) Claim(ctx context.Context, workerID string) (*domain.JobDispatch, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM job_dispatches
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT 1`, domain.DispatchPending).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select pending dispatch: %w", err)
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE job_dispatches
		SET status = $1, worker_id = $2, claimed_at = $3
		WHERE id = $4 AND status = $5
		RETURNING id, job_id, created_at, claimed_at, completed_at, status,
		          worker_id, retry_count, error_message`,
		domain.DispatchInProgress, workerID, time.Now().UTC(), id, domain.DispatchPending)

	dispatch, err := scanDispatch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Another worker won the race between our SELECT and our UPDATE.
			return nil, domain.ErrDispatchNotPending
		}
		return nil, fmt.Errorf("claim dispatch %d: %w", id, err)
	}
	return dispatch, nil
}

// Report records a dispatch's terminal outcome, guarded on the dispatch
// still being IN_PROGRESS: if the timeout sweep or a shutdown release
// already transitioned it away (spec invariant #5, "exactly one
// JobExecutionLog ... per terminal dispatch"), this is a no-op that returns
// domain.ErrDispatchNotInProgress rather than clobbering the terminal state
// or inserting a second execution log.
func (r *DispatchRepository) Report(ctx context.Context, dispatchID int64, workerID string, status domain.DispatchStatus, errMsg *string, log *domain.JobExecutionLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	now := time.Now().UTC()
	tag, execErr := tx.Exec(ctx, `
		UPDATE job_dispatches
		SET status = $2, completed_at = $3, error_message = $4
		WHERE id = $1 AND status = $5`,
		dispatchID, status, now, errMsg, domain.DispatchInProgress,
	)
	if execErr != nil {
		err = execErr
		return fmt.Errorf("update dispatch %d: %w", dispatchID, err)
	}
	if tag.RowsAffected() == 0 {
		err = domain.ErrDispatchNotInProgress
		return err
	}

	if _, execErr := tx.Exec(ctx, `
		INSERT INTO job_execution_logs (job_id, run_time, status, log_output)
		VALUES ($1, $2, $3, $4)`,
		log.JobID, log.RunTime, log.Status, log.LogOutput,
	); execErr != nil {
		err = execErr
		return fmt.Errorf("insert execution log: %w", err)
	}

	if _, execErr := tx.Exec(ctx, `
		UPDATE worker_registrations
		SET status = $2, current_job_id = NULL, jobs_processed = jobs_processed + 1, last_heartbeat = $3
		WHERE worker_id = $1`,
		workerID, domain.WorkerIdle, now,
	); execErr != nil {
		err = execErr
		return fmt.Errorf("update worker %s: %w", workerID, err)
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = commitErr
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// ReleaseOwnedByWorker implements the graceful-shutdown release described in
// spec §4.3 "Graceful shutdown": reset any IN_PROGRESS dispatch owned by
// workerID back to PENDING so another worker can claim it.
func (r *DispatchRepository) ReleaseOwnedByWorker(ctx context.Context, workerID string) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE job_dispatches
		SET status = $1, worker_id = NULL, claimed_at = NULL
		WHERE worker_id = $2 AND status = $3`,
		domain.DispatchPending, workerID, domain.DispatchInProgress)
	if err != nil {
		return 0, fmt.Errorf("release dispatches owned by %s: %w", workerID, err)
	}
	return int(tag.RowsAffected()), nil
}

// SweepTimeouts implements spec §4.2.2: reclaim dispatches stuck IN_PROGRESS
// past the timeout threshold, logging each as TIMEOUT and retrying when
// budget remains. A dispatch is only a candidate when its owning worker is
// absent or has gone quiet past heartbeatCutoff — one still heartbeating is
// presumed alive and genuinely executing, even past cutoff, so it is left
// alone to avoid a duplicate execution (spec §4.2.2, §6).
func (r *DispatchRepository) SweepTimeouts(ctx context.Context, cutoff, heartbeatCutoff time.Time, maxRetries int, limit int) (int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT d.id, d.job_id, d.created_at, d.claimed_at, d.completed_at, d.status,
		       d.worker_id, d.retry_count, d.error_message
		FROM job_dispatches d
		LEFT JOIN worker_registrations w ON w.worker_id = d.worker_id
		WHERE d.status = $1 AND d.claimed_at < $2
		  AND (w.worker_id IS NULL OR w.last_heartbeat < $3)
		ORDER BY d.claimed_at ASC
		LIMIT $4
		FOR UPDATE OF d SKIP LOCKED`, domain.DispatchInProgress, cutoff, heartbeatCutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("select stuck dispatches: %w", err)
	}

	var stuck []*domain.JobDispatch
	for rows.Next() {
		d, scanErr := scanDispatch(rows)
		if scanErr != nil {
			rows.Close()
			return 0, scanErr
		}
		stuck = append(stuck, d)
	}
	rows.Close()
	if rowsErr := rows.Err(); rowsErr != nil {
		return 0, fmt.Errorf("iterate stuck dispatches: %w", rowsErr)
	}

	now := time.Now().UTC()
	swept := 0
	for _, d := range stuck {
		timeoutMsg := "worker timeout"
		tag, err := r.pool.Exec(ctx, `
			UPDATE job_dispatches
			SET status = $2, completed_at = $3, error_message = $4
			WHERE id = $1 AND status = $5`,
			d.ID, domain.DispatchTimeout, now, timeoutMsg, domain.DispatchInProgress,
		)
		if err != nil {
			return swept, fmt.Errorf("mark dispatch %d timeout: %w", d.ID, err)
		}
		if tag.RowsAffected() == 0 {
			// The worker's report or a shutdown release got there first.
			continue
		}

		if _, err := r.pool.Exec(ctx, `
			INSERT INTO job_execution_logs (job_id, run_time, status, log_output)
			VALUES ($1, $2, $3, $4)`,
			d.JobID, now, domain.LogTimeout, timeoutMsg,
		); err != nil {
			return swept, fmt.Errorf("insert timeout log for dispatch %d: %w", d.ID, err)
		}

		if d.RetryCount < maxRetries {
			if _, err := r.pool.Exec(ctx, `
				INSERT INTO job_dispatches (job_id, status, retry_count, created_at)
				VALUES ($1, $2, $3, $4)`,
				d.JobID, domain.DispatchPending, d.RetryCount+1, now,
			); err != nil {
				return swept, fmt.Errorf("insert retry dispatch for job %d: %w", d.JobID, err)
			}
		}
		swept++
	}
	return swept, nil
}

// Cleanup implements spec §4.2.4: delete terminal dispatches completed
// before cutoff. Execution logs are independent, immutable audit rows and
// are retained regardless (spec §3, JobExecutionLog "never mutated").
func (r *DispatchRepository) Cleanup(ctx context.Context, cutoff time.Time, limit int) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM job_dispatches
		WHERE id IN (
			SELECT id FROM job_dispatches
			WHERE status IN ($1, $2, $3) AND completed_at < $4
			LIMIT $5
		)`,
		domain.DispatchCompleted, domain.DispatchFailed, domain.DispatchTimeout, cutoff, limit)
	if err != nil {
		return 0, fmt.Errorf("cleanup dispatches: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanDispatch(row rowScanner) (*domain.JobDispatch, error) {
	var d domain.JobDispatch
	err := row.Scan(
		&d.ID, &d.JobID, &d.CreatedAt, &d.ClaimedAt, &d.CompletedAt, &d.Status,
		&d.WorkerID, &d.RetryCount, &d.ErrorMessage,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDispatchNotFound
		}
		return nil, fmt.Errorf("scan dispatch: %w", err)
	}
	return &d, nil
}
