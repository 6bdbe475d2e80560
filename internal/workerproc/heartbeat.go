package workerproc

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// heartbeat runs concurrently with the main claim/execute loop (spec §4.3
// "Heartbeat"). It reads the main loop's status only through the
// mutex-guarded statusFn snapshot and writes only to the database, so it
// keeps proving liveness even while a long-running script blocks the main
// loop.
type heartbeat struct {
	workerRepo repository.WorkerRepository
	workerID   string
	interval   time.Duration
	logger     *slog.Logger

	statusFn func() (domain.WorkerStatus, *int64)
}

func newHeartbeat(workerRepo repository.WorkerRepository, workerID string, interval time.Duration, logger *slog.Logger, statusFn func() (domain.WorkerStatus, *int64)) *heartbeat {
	return &heartbeat{
		workerRepo: workerRepo,
		workerID:   workerID,
		interval:   interval,
		logger:     logger.With("component", "heartbeat"),
		statusFn:   statusFn,
	}
}

func (h *heartbeat) run(ctx context.Context) {
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			status, jobID := h.statusFn()
			if err := h.workerRepo.Heartbeat(ctx, h.workerID, status, jobID); err != nil {
				h.logger.Error("heartbeat update failed", "error", err)
			}
		}
	}
}
