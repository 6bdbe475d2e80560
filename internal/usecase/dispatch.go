package usecase

import (
	"context"
	"fmt"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// DispatchUsecase exposes a read-only view over JobDispatch rows for the
// admin API — dispatches are only ever written by the Scheduler and Worker
// processes (spec §2's "read-mostly" admin surface).
type DispatchUsecase struct {
	repo repository.DispatchRepository
}

func NewDispatchUsecase(repo repository.DispatchRepository) *DispatchUsecase {
	return &DispatchUsecase{repo: repo}
}

func (u *DispatchUsecase) GetDispatch(ctx context.Context, id int64) (*domain.JobDispatch, error) {
	d, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get dispatch: %w", err)
	}
	return d, nil
}

type ListDispatchesInput struct {
	JobID  *int64
	Status domain.DispatchStatus
	Limit  int
	Offset int
}

func (u *DispatchUsecase) ListDispatches(ctx context.Context, input ListDispatchesInput) ([]*domain.JobDispatch, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	dispatches, err := u.repo.List(ctx, repository.ListDispatchesInput{
		JobID:  input.JobID,
		Status: input.Status,
		Limit:  limit,
		Offset: input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list dispatches: %w", err)
	}
	return dispatches, nil
}
