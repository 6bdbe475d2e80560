package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// TimeoutSweep runs spec §4.2.2: reclaim dispatches stuck IN_PROGRESS past
// the timeout threshold, marking them TIMEOUT and retrying when budget
// remains.
type TimeoutSweep struct {
	dispatchRepo     repository.DispatchRepository
	logger           *slog.Logger
	interval         time.Duration
	threshold        time.Duration
	offlineThreshold time.Duration
	maxRetries       int
	batchLimit       int
}

// NewTimeoutSweep wires up the sweep. offlineThreshold mirrors
// scheduler.worker_offline_threshold (spec §6) and gates reclaiming on worker
// liveness: a dispatch only times out when its worker's heartbeat is
// older than offlineThreshold, independent of the claimed_at/threshold
// check against the dispatch itself.
func NewTimeoutSweep(dispatchRepo repository.DispatchRepository, logger *slog.Logger, interval, threshold, offlineThreshold time.Duration, maxRetries int) *TimeoutSweep {
	return &TimeoutSweep{
		dispatchRepo:     dispatchRepo,
		logger:           logger.With("component", "timeout_sweep"),
		interval:         interval,
		threshold:        threshold,
		offlineThreshold: offlineThreshold,
		maxRetries:       maxRetries,
		batchLimit:       100,
	}
}

func (s *TimeoutSweep) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("timeout sweep started", "interval", s.interval, "threshold", s.threshold)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("timeout sweep shut down")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *TimeoutSweep) sweep(ctx context.Context) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.threshold)
	heartbeatCutoff := now.Add(-s.offlineThreshold)
	swept, err := s.dispatchRepo.SweepTimeouts(ctx, cutoff, heartbeatCutoff, s.maxRetries, s.batchLimit)
	if err != nil {
		s.logger.Error("timeout sweep", "error", err)
		return
	}
	if swept > 0 {
		metrics.DispatchesTimedOutTotal.Add(float64(swept))
		s.logger.Warn("timeout sweep reclaimed dispatches", "count", swept)
	}
}
