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

type JobRepository struct {
	pool *pgxpool.Pool
}

func NewJobRepository(pool *pgxpool.Pool) *JobRepository {
	return &JobRepository{pool: pool}
}

func (r *JobRepository) Create(ctx context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error) {
	query := `
		INSERT INTO scheduled_jobs (
			name, script_path, schedule_type, interval_seconds, schedule_time,
			schedule_minute, schedule_day, is_active, next_run
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, name, script_path, schedule_type, interval_seconds, schedule_time,
		          schedule_minute, schedule_day, is_active, next_run,
		          last_dispatched_at, dispatch_lock_until, created_at, updated_at`

	row := r.pool.QueryRow(ctx, query,
		job.Name, job.ScriptPath, job.ScheduleType, job.IntervalSeconds, job.ScheduleTime,
		job.ScheduleMinute, job.ScheduleDay, job.IsActive, job.NextRun,
	)
	return scanJob(row)
}

func (r *JobRepository) GetByID(ctx context.Context, id int64) (*domain.ScheduledJob, error) {
	query := `
		SELECT id, name, script_path, schedule_type, interval_seconds, schedule_time,
		       schedule_minute, schedule_day, is_active, next_run,
		       last_dispatched_at, dispatch_lock_until, created_at, updated_at
		FROM scheduled_jobs
		WHERE id = $1`
	return scanJob(r.pool.QueryRow(ctx, query, id))
}

func (r *JobRepository) List(ctx context.Context, input repository.ListJobsInput) ([]*domain.ScheduledJob, error) {
	query := `
		SELECT id, name, script_path, schedule_type, interval_seconds, schedule_time,
		       schedule_minute, schedule_day, is_active, next_run,
		       last_dispatched_at, dispatch_lock_until, created_at, updated_at
		FROM scheduled_jobs`
	args := []any{}
	if input.ActiveOnly {
		query += " WHERE is_active"
	}
	query += " ORDER BY id ASC LIMIT $1 OFFSET $2"
	limit := input.Limit
	if limit <= 0 {
		limit = 100
	}
	args = append(args, limit, input.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*domain.ScheduledJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, rows.Err()
}

func (r *JobRepository) Update(ctx context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error) {
	query := `
		UPDATE scheduled_jobs
		SET name = $2, script_path = $3, schedule_type = $4, interval_seconds = $5,
		    schedule_time = $6, schedule_minute = $7, schedule_day = $8,
		    is_active = $9, next_run = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, script_path, schedule_type, interval_seconds, schedule_time,
		          schedule_minute, schedule_day, is_active, next_run,
		          last_dispatched_at, dispatch_lock_until, created_at, updated_at`
	row := r.pool.QueryRow(ctx, query,
		job.ID, job.Name, job.ScriptPath, job.ScheduleType, job.IntervalSeconds,
		job.ScheduleTime, job.ScheduleMinute, job.ScheduleDay, job.IsActive, job.NextRun,
	)
	return scanJob(row)
}

func (r *JobRepository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scheduled_jobs SET is_active = $2, updated_at = NOW() WHERE id = $1`,
		id, active)
	if err != nil {
		return fmt.Errorf("set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *JobRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM scheduled_jobs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// RunNow implements the "Run Now" write from spec §6: set next_run = now
// regardless of schedule_type, so the next dispatch cycle picks it up.
func (r *JobRepository) RunNow(ctx context.Context, id int64, now time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE scheduled_jobs SET next_run = $2, updated_at = NOW() WHERE id = $1`,
		id, now)
	if err != nil {
		return fmt.Errorf("run now: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// DispatchDue is the dispatch cycle described in spec §4.2.1: select active
// jobs whose next_run has arrived and whose dispatch lock has expired,
// row-locking with FOR UPDATE SKIP LOCKED so concurrent Scheduler instances
// never double-dispatch the same job, insert one PENDING JobDispatch per
// job, and advance next_run/last_dispatched_at/dispatch_lock_until — all in
// a single transaction so a crash mid-cycle leaves no partial state.
func (r *JobRepository) DispatchDue(ctx context.Context, now time.Time, limit int, lockDuration time.Duration, computeNext func(*domain.ScheduledJob) (*time.Time, error)) ([]*domain.JobDispatch, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	rows, queryErr := tx.Query(ctx, `
		SELECT id, name, script_path, schedule_type, interval_seconds, schedule_time,
		       schedule_minute, schedule_day, is_active, next_run,
		       last_dispatched_at, dispatch_lock_until, created_at, updated_at
		FROM scheduled_jobs
		WHERE is_active
		  AND next_run <= $1
		  AND (dispatch_lock_until IS NULL OR dispatch_lock_until < $1)
		ORDER BY next_run ASC
		LIMIT $2
		FOR UPDATE SKIP LOCKED`, now, limit)
	if queryErr != nil {
		err = queryErr
		return nil, fmt.Errorf("select due jobs: %w", err)
	}

	var jobs []*domain.ScheduledJob
	for rows.Next() {
		j, scanErr := scanJob(rows)
		if scanErr != nil {
			rows.Close()
			err = scanErr
			return nil, err
		}
		jobs = append(jobs, j)
	}
	rows.Close()
	if rowsErr := rows.Err(); rowsErr != nil {
		err = rowsErr
		return nil, fmt.Errorf("iterate due jobs: %w", err)
	}

	var dispatches []*domain.JobDispatch
	for _, job := range jobs {
		var d domain.JobDispatch
		scanErr := tx.QueryRow(ctx, `
			INSERT INTO job_dispatches (job_id, status, retry_count, created_at)
			VALUES ($1, $2, 0, $3)
			RETURNING id, job_id, created_at, claimed_at, completed_at, status,
			          worker_id, retry_count, error_message`,
			job.ID, domain.DispatchPending, now,
		).Scan(&d.ID, &d.JobID, &d.CreatedAt, &d.ClaimedAt, &d.CompletedAt, &d.Status,
			&d.WorkerID, &d.RetryCount, &d.ErrorMessage)
		if scanErr != nil {
			err = scanErr
			return nil, fmt.Errorf("insert dispatch for job %d: %w", job.ID, err)
		}
		dispatches = append(dispatches, &d)

		next, computeErr := computeNext(job)
		if computeErr != nil {
			err = computeErr
			return nil, fmt.Errorf("compute next run for job %d: %w", job.ID, err)
		}
		lockUntil := now.Add(lockDuration)
		if _, updateErr := tx.Exec(ctx, `
			UPDATE scheduled_jobs
			SET next_run = $2, last_dispatched_at = $3, dispatch_lock_until = $4, updated_at = $3
			WHERE id = $1`,
			job.ID, next, now, lockUntil,
		); updateErr != nil {
			err = updateErr
			return nil, fmt.Errorf("advance job %d: %w", job.ID, err)
		}
	}

	if commitErr := tx.Commit(ctx); commitErr != nil {
		err = commitErr
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return dispatches, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*domain.ScheduledJob, error) {
	var j domain.ScheduledJob
	err := row.Scan(
		&j.ID, &j.Name, &j.ScriptPath, &j.ScheduleType, &j.IntervalSeconds, &j.ScheduleTime,
		&j.ScheduleMinute, &j.ScheduleDay, &j.IsActive, &j.NextRun,
		&j.LastDispatchedAt, &j.DispatchLockUntil, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrJobNotFound
		}
		return nil, fmt.Errorf("scan job: %w", err)
	}
	return &j, nil
}
