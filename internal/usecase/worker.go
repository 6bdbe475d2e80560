package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// WorkerUsecase exposes the "active workers" fleet view named in spec §6.
type WorkerUsecase struct {
	repo             repository.WorkerRepository
	offlineThreshold time.Duration
}

func NewWorkerUsecase(repo repository.WorkerRepository, offlineThreshold time.Duration) *WorkerUsecase {
	return &WorkerUsecase{repo: repo, offlineThreshold: offlineThreshold}
}

func (u *WorkerUsecase) ListActive(ctx context.Context) ([]*domain.WorkerRegistration, error) {
	workers, err := u.repo.ListActive(ctx, u.offlineThreshold)
	if err != nil {
		return nil, fmt.Errorf("list active workers: %w", err)
	}
	return workers, nil
}
