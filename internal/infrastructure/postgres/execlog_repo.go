package postgres

import (
	"context"
	"fmt"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ExecutionLogRepository struct {
	pool *pgxpool.Pool
}

func NewExecutionLogRepository(pool *pgxpool.Pool) *ExecutionLogRepository {
	return &ExecutionLogRepository{pool: pool}
}

func (r *ExecutionLogRepository) ListByJobID(ctx context.Context, jobID int64, limit int) ([]*domain.JobExecutionLog, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, job_id, run_time, status, log_output
		FROM job_execution_logs
		WHERE job_id = $1
		ORDER BY run_time DESC
		LIMIT $2`, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list execution logs: %w", err)
	}
	defer rows.Close()

	var logs []*domain.JobExecutionLog
	for rows.Next() {
		var l domain.JobExecutionLog
		if err := rows.Scan(&l.ID, &l.JobID, &l.RunTime, &l.Status, &l.LogOutput); err != nil {
			return nil, fmt.Errorf("scan execution log: %w", err)
		}
		logs = append(logs, &l)
	}
	return logs, rows.Err()
}
