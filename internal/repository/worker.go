package repository

import (
	"context"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// WorkerRepository persists WorkerRegistration liveness rows, per spec §3
// and the lifecycle in §4.3/§4.4.
type WorkerRepository interface {
	Register(ctx context.Context, w *domain.WorkerRegistration) error
	Heartbeat(ctx context.Context, workerID string, status domain.WorkerStatus, currentJobID *int64) error
	Unregister(ctx context.Context, workerID string) error

	// ListActive returns workers whose last_heartbeat is fresher than the
	// offline threshold — the "active workers" view named in spec §6.
	ListActive(ctx context.Context, offlineThreshold time.Duration) ([]*domain.WorkerRegistration, error)

	// ReapStale deletes registrations whose last_heartbeat has aged past
	// offlineThreshold and returns how many were removed (spec §4.2.3).
	ReapStale(ctx context.Context, offlineThreshold time.Duration) (int, error)
}
