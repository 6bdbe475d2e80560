package scheduler

import (
	"context"
	"log/slog"
	"sync"
)

// periodicTask is satisfied by Dispatcher, TimeoutSweep, Reaper, and Cleanup.
type periodicTask interface {
	Start(ctx context.Context)
}

// Controller runs the Scheduler process's four periodic sub-tasks as
// independent goroutines sharing nothing but the database (spec §4.2,
// "run from a single control loop with distinct cadences"). Each sub-task
// ticks on its own cadence; a Scheduler crash mid-cycle leaves no partial
// state because every sub-task commits its own transaction per tick.
type Controller struct {
	logger   *slog.Logger
	dispatch *Dispatcher
	sweep    *TimeoutSweep
	reaper   *Reaper
	cleanup  *Cleanup
}

func NewController(logger *slog.Logger, dispatch *Dispatcher, sweep *TimeoutSweep, reaper *Reaper, cleanup *Cleanup) *Controller {
	return &Controller{
		logger:   logger.With("component", "controller"),
		dispatch: dispatch,
		sweep:    sweep,
		reaper:   reaper,
		cleanup:  cleanup,
	}
}

// Run starts all four sub-tasks and blocks until ctx is cancelled and every
// sub-task has observed the cancellation and returned.
func (c *Controller) Run(ctx context.Context) {
	tasks := []periodicTask{c.dispatch, c.sweep, c.reaper, c.cleanup}

	var wg sync.WaitGroup
	for _, t := range tasks {
		wg.Add(1)
		go func(t periodicTask) {
			defer wg.Done()
			t.Start(ctx)
		}(t)
	}

	c.logger.Info("scheduler controller running")
	wg.Wait()
	c.logger.Info("scheduler controller stopped")
}
