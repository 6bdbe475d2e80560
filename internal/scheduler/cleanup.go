package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// Cleanup runs spec §4.2.4: purge terminal dispatches older than the
// retention window. A long cadence (default ~3600s) is deliberate — this is
// housekeeping, not a correctness-critical path.
type Cleanup struct {
	dispatchRepo repository.DispatchRepository
	logger       *slog.Logger
	interval     time.Duration
	retention    time.Duration
	batchLimit   int
}

func NewCleanup(dispatchRepo repository.DispatchRepository, logger *slog.Logger, interval, retention time.Duration) *Cleanup {
	return &Cleanup{
		dispatchRepo: dispatchRepo,
		logger:       logger.With("component", "cleanup"),
		interval:     interval,
		retention:    retention,
		batchLimit:   1000,
	}
}

func (c *Cleanup) Start(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.logger.Info("cleanup started", "interval", c.interval, "retention", c.retention)

	for {
		select {
		case <-ctx.Done():
			c.logger.Info("cleanup shut down")
			return
		case <-ticker.C:
			c.purge(ctx)
		}
	}
}

func (c *Cleanup) purge(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.retention)
	deleted, err := c.dispatchRepo.Cleanup(ctx, cutoff, c.batchLimit)
	if err != nil {
		c.logger.Error("cleanup", "error", err)
		return
	}
	if deleted > 0 {
		c.logger.Info("cleanup purged terminal dispatches", "count", deleted)
	}
}
