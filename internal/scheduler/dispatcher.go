package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/nextrun"
	"github.com/arjendijkstra/dispatchd/internal/repository"
)

// Dispatcher runs the dispatch cycle described in spec §4.2.1 on a fixed
// cadence: every active, due job with no outstanding dispatch lock produces
// exactly one PENDING JobDispatch.
type Dispatcher struct {
	jobRepo      repository.JobRepository
	logger       *slog.Logger
	interval     time.Duration
	lockDuration time.Duration
	batchLimit   int
}

func NewDispatcher(jobRepo repository.JobRepository, logger *slog.Logger, interval, lockDuration time.Duration) *Dispatcher {
	return &Dispatcher{
		jobRepo:      jobRepo,
		logger:       logger.With("component", "dispatcher"),
		interval:     interval,
		lockDuration: lockDuration,
		batchLimit:   100,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	d.logger.Info("dispatcher started", "interval", d.interval)

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("dispatcher shut down")
			return
		case <-ticker.C:
			d.dispatch(ctx)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context) {
	now := time.Now().UTC()
	dispatches, err := d.jobRepo.DispatchDue(ctx, now, d.batchLimit, d.lockDuration, computeNext)
	if err != nil {
		d.logger.Error("dispatch cycle", "error", err)
		return
	}
	if len(dispatches) > 0 {
		metrics.DispatchesCreatedTotal.Add(float64(len(dispatches)))
		d.logger.Info("dispatch cycle created dispatches", "count", len(dispatches))
	}
}

// computeNext adapts nextrun.Compute to the signature DispatchDue expects.
// For a manual job it returns nil, which DispatchDue stores as a NULL next_run.
func computeNext(job *domain.ScheduledJob) (*time.Time, error) {
	return nextrun.Compute(job, time.Now().UTC())
}
