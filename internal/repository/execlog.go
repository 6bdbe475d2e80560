package repository

import (
	"context"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// ExecutionLogRepository persists the immutable JobExecutionLog trail.
type ExecutionLogRepository interface {
	ListByJobID(ctx context.Context, jobID int64, limit int) ([]*domain.JobExecutionLog, error)
}
