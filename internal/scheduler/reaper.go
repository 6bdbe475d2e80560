package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// Reaper runs spec §4.2.3: delete WorkerRegistration rows whose heartbeat
// has aged past the offline threshold. The dispatches those workers held
// are recovered separately by TimeoutSweep once their worker_id is null.
type Reaper struct {
	workerRepo       repository.WorkerRepository
	logger           *slog.Logger
	interval         time.Duration
	offlineThreshold time.Duration
}

func NewReaper(workerRepo repository.WorkerRepository, logger *slog.Logger, interval, offlineThreshold time.Duration) *Reaper {
	return &Reaper{
		workerRepo:       workerRepo,
		logger:           logger.With("component", "reaper"),
		interval:         interval,
		offlineThreshold: offlineThreshold,
	}
}

func (r *Reaper) Start(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("reaper started", "interval", r.interval, "offline_threshold", r.offlineThreshold)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("reaper shut down")
			return
		case <-ticker.C:
			r.reap(ctx)
		}
	}
}

func (r *Reaper) reap(ctx context.Context) {
	reaped, err := r.workerRepo.ReapStale(ctx, r.offlineThreshold)
	if err != nil {
		r.logger.Error("reaper", "error", err)
		return
	}
	if reaped > 0 {
		metrics.WorkersReapedTotal.Add(float64(reaped))
		r.logger.Warn("reaper removed stale workers", "count", reaped)
	}
}
