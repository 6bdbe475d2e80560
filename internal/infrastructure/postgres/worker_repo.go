package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WorkerRepository struct {
	pool *pgxpool.Pool
}

func NewWorkerRepository(pool *pgxpool.Pool) *WorkerRepository {
	return &WorkerRepository{pool: pool}
}

// Register inserts a WorkerRegistration row on worker startup (spec §4.3
// "Startup"). A conflict on worker_id should never happen with a fresh
// UUID; it is surfaced rather than silently ignored.
func (r *WorkerRepository) Register(ctx context.Context, w *domain.WorkerRegistration) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO worker_registrations (
			worker_id, hostname, platform, started_at, last_heartbeat,
			status, jobs_processed, current_job_id, process_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		w.WorkerID, w.Hostname, w.Platform, w.StartedAt, w.LastHeartbeat,
		w.Status, w.JobsProcessed, w.CurrentJobID, w.ProcessID,
	)
	if err != nil {
		return fmt.Errorf("register worker %s: %w", w.WorkerID, err)
	}
	return nil
}

func (r *WorkerRepository) Heartbeat(ctx context.Context, workerID string, status domain.WorkerStatus, currentJobID *int64) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE worker_registrations
		SET last_heartbeat = $2, status = $3, current_job_id = $4
		WHERE worker_id = $1`,
		workerID, time.Now().UTC(), status, currentJobID)
	if err != nil {
		return fmt.Errorf("heartbeat worker %s: %w", workerID, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkerNotFound
	}
	return nil
}

// Unregister deletes own WorkerRegistration row, the final step of graceful
// shutdown (spec §4.3).
func (r *WorkerRepository) Unregister(ctx context.Context, workerID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM worker_registrations WHERE worker_id = $1`, workerID)
	if err != nil {
		return fmt.Errorf("unregister worker %s: %w", workerID, err)
	}
	return nil
}

// ListActive implements the "active workers" view named in spec §6.
func (r *WorkerRepository) ListActive(ctx context.Context, offlineThreshold time.Duration) ([]*domain.WorkerRegistration, error) {
	cutoff := time.Now().UTC().Add(-offlineThreshold)
	rows, err := r.pool.Query(ctx, `
		SELECT worker_id, hostname, platform, started_at, last_heartbeat,
		       status, jobs_processed, current_job_id, process_id
		FROM worker_registrations
		WHERE last_heartbeat > $1
		ORDER BY worker_id ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list active workers: %w", err)
	}
	defer rows.Close()

	var workers []*domain.WorkerRegistration
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, rows.Err()
}

// ReapStale implements the reaper sub-task in spec §4.2.3: delete worker
// rows whose heartbeat has aged past offlineThreshold. Foreign-key
// semantics on job_dispatches.worker_id null it out; the timeout sweep then
// recovers any dispatch those workers held.
func (r *WorkerRepository) ReapStale(ctx context.Context, offlineThreshold time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-offlineThreshold)
	tag, err := r.pool.Exec(ctx, `DELETE FROM worker_registrations WHERE last_heartbeat < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("reap stale workers: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func scanWorker(row rowScanner) (*domain.WorkerRegistration, error) {
	var w domain.WorkerRegistration
	err := row.Scan(
		&w.WorkerID, &w.Hostname, &w.Platform, &w.StartedAt, &w.LastHeartbeat,
		&w.Status, &w.JobsProcessed, &w.CurrentJobID, &w.ProcessID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkerNotFound
		}
		return nil, fmt.Errorf("scan worker: %w", err)
	}
	return &w, nil
}
