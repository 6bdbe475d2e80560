package usecase

import (
	"context"
	"fmt"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// ExecutionLogUsecase exposes a job's execution history to the admin API.
type ExecutionLogUsecase struct {
	repo repository.ExecutionLogRepository
}

func NewExecutionLogUsecase(repo repository.ExecutionLogRepository) *ExecutionLogUsecase {
	return &ExecutionLogUsecase{repo: repo}
}

func (u *ExecutionLogUsecase) ListByJobID(ctx context.Context, jobID int64, limit int) ([]*domain.JobExecutionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	logs, err := u.repo.ListByJobID(ctx, jobID, limit)
	if err != nil {
		return nil, fmt.Errorf("list execution logs: %w", err)
	}
	return logs, nil
}
