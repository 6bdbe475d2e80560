// Package workerproc implements the Worker process described in spec §4.3:
// a cooperative claim-execute-report loop with a concurrent heartbeat,
// exponential backoff on an empty queue, and bounded graceful shutdown.
package workerproc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/repository"
	"github.com/arjendijkstra/dispatchd/internal/scriptpath"
	"github.com/google/uuid"
)

// Config holds the worker's tunables, mirroring spec §6's worker.* keys.
type Config struct {
	PollInterval      time.Duration
	MaxPollInterval   time.Duration
	HeartbeatInterval time.Duration
	JobTimeout        time.Duration
	ShutdownGrace     time.Duration
}

// Worker runs one claim-execute-report loop plus a concurrent heartbeat. A
// host runs many Workers in separate processes to get fleet parallelism;
// a single Worker only ever holds one dispatch at a time (spec §4.3 "Main
// loop", "one script at a time per worker").
type Worker struct {
	id string

	dispatchRepo repository.DispatchRepository
	jobRepo      repository.JobRepository
	workerRepo   repository.WorkerRepository
	scripts      *scriptpath.Resolver
	executor     *Executor
	logger       *slog.Logger

	cfg     Config
	backoff *backoff

	mu           sync.Mutex
	status       domain.WorkerStatus
	currentJobID *int64
}

func NewWorker(
	dispatchRepo repository.DispatchRepository,
	jobRepo repository.JobRepository,
	workerRepo repository.WorkerRepository,
	scripts *scriptpath.Resolver,
	logger *slog.Logger,
	cfg Config,
) *Worker {
	return &Worker{
		id:           uuid.NewString(),
		dispatchRepo: dispatchRepo,
		jobRepo:      jobRepo,
		workerRepo:   workerRepo,
		scripts:      scripts,
		executor:     NewExecutor(cfg.JobTimeout),
		logger:       logger.With("component", "worker", "worker_id", "pending"),
		cfg:          cfg,
		backoff:      newBackoff(cfg.PollInterval, cfg.MaxPollInterval),
		status:       domain.WorkerIdle,
	}
}

// Start registers the worker, runs the claim/execute/report loop and a
// concurrent heartbeat until ctx is cancelled, then performs the bounded
// graceful shutdown described in spec §4.3.
func (w *Worker) Start(ctx context.Context) error {
	w.logger = w.logger.With("worker_id", w.id)

	hostname, _ := os.Hostname()
	now := time.Now().UTC()
	reg := &domain.WorkerRegistration{
		WorkerID:      w.id,
		Hostname:      hostname,
		Platform:      runtime.GOOS,
		StartedAt:     now,
		LastHeartbeat: now,
		Status:        domain.WorkerIdle,
		ProcessID:     os.Getpid(),
	}
	if err := w.workerRepo.Register(ctx, reg); err != nil {
		return fmt.Errorf("register worker: %w", err)
	}
	metrics.WorkerStartTime.Set(float64(now.Unix()))
	w.logger.Info("worker registered", "hostname", hostname, "pid", reg.ProcessID)

	hbCtx, cancelHB := context.WithCancel(context.Background())
	hb := newHeartbeat(w.workerRepo, w.id, w.cfg.HeartbeatInterval, w.logger, w.snapshot)
	go hb.run(hbCtx)

	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		w.loop(ctx)
	}()

	<-ctx.Done()
	w.logger.Info("shutdown signal received, waiting for current dispatch to finish")

	select {
	case <-loopDone:
	case <-time.After(w.cfg.ShutdownGrace):
		w.logger.Warn("shutdown grace period elapsed, releasing in-progress dispatch")
	}
	cancelHB()

	shutdownCtx := context.Background()
	if released, err := w.dispatchRepo.ReleaseOwnedByWorker(shutdownCtx, w.id); err != nil {
		w.logger.Error("release owned dispatches", "error", err)
	} else if released > 0 {
		w.logger.Info("released in-progress dispatch on shutdown", "count", released)
	}
	if err := w.workerRepo.Unregister(shutdownCtx, w.id); err != nil {
		w.logger.Error("unregister worker", "error", err)
	}
	metrics.WorkerShutdownsTotal.Inc()
	w.logger.Info("worker shut down")
	return nil
}

func (w *Worker) snapshot() (domain.WorkerStatus, *int64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status, w.currentJobID
}

func (w *Worker) setBusy(jobID int64) {
	w.mu.Lock()
	w.status = domain.WorkerBusy
	w.currentJobID = &jobID
	w.mu.Unlock()
	metrics.JobsInFlight.Set(1)
}

func (w *Worker) setIdle() {
	w.mu.Lock()
	w.status = domain.WorkerIdle
	w.currentJobID = nil
	w.mu.Unlock()
	metrics.JobsInFlight.Set(0)
}

// loop is the "Poll & claim" step of spec §4.3.1, run cooperatively and
// single-threaded: one script executes at a time per worker.
func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		dispatch, err := w.dispatchRepo.Claim(ctx, w.id)
		if err != nil {
			if err == domain.ErrDispatchNotPending {
				// Lost the race to another worker — expected, not an error.
				metrics.ClaimLossesTotal.Inc()
				w.backoff.reset()
				continue
			}
			w.logger.Error("claim", "error", err)
			if !w.sleep(ctx, w.cfg.PollInterval) {
				return
			}
			continue
		}
		if dispatch == nil {
			if !w.sleep(ctx, w.backoff.next()) {
				return
			}
			continue
		}

		w.backoff.reset()
		if dispatch.ClaimedAt != nil {
			metrics.DispatchPickupLatency.Observe(dispatch.ClaimedAt.Sub(dispatch.CreatedAt).Seconds())
		}
		w.runDispatch(dispatch)
	}
}

func (w *Worker) sleep(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}

// runDispatch is the "Execute" and "Report" steps of spec §4.3.2-3. It
// deliberately uses a context detached from the caller's loop ctx for the
// script run and the report write, so a shutdown signal lets an in-flight
// dispatch finish (bounded by ShutdownGrace in Start) rather than killing
// it outright.
func (w *Worker) runDispatch(dispatch *domain.JobDispatch) {
	ctx := context.Background()
	w.setBusy(dispatch.JobID)
	defer w.setIdle()

	job, err := w.jobRepo.GetByID(ctx, dispatch.JobID)
	if err != nil {
		w.fail(ctx, dispatch, "job definition not found", domain.LogError)
		return
	}

	resolved, err := w.scripts.Exists(job.ScriptPath)
	if err != nil {
		w.fail(ctx, dispatch, "invalid script path", domain.LogError)
		return
	}

	start := time.Now().UTC()
	result := w.executor.Run(ctx, resolved, w.scripts.Root())

	switch {
	case result.TimedOut:
		w.complete(ctx, dispatch, domain.DispatchTimeout, domain.LogTimeout, start, result, "script execution timed out")
	case result.ExitCode == 0:
		w.complete(ctx, dispatch, domain.DispatchCompleted, domain.LogSuccess, start, result, "")
	default:
		msg := fmt.Sprintf("script exited with status %d", result.ExitCode)
		w.complete(ctx, dispatch, domain.DispatchFailed, domain.LogFailure, start, result, msg)
	}
}

func (w *Worker) fail(ctx context.Context, dispatch *domain.JobDispatch, reason string, logStatus domain.LogStatus) {
	w.complete(ctx, dispatch, domain.DispatchFailed, logStatus, time.Now().UTC(), ExecutionResult{ExitCode: -1, Output: reason}, reason)
}

func (w *Worker) complete(ctx context.Context, dispatch *domain.JobDispatch, status domain.DispatchStatus, logStatus domain.LogStatus, runTime time.Time, result ExecutionResult, errMsg string) {
	var errMsgPtr *string
	if errMsg != "" {
		errMsgPtr = &errMsg
	}
	log := &domain.JobExecutionLog{
		JobID:     dispatch.JobID,
		RunTime:   runTime,
		Status:    logStatus,
		LogOutput: result.Output,
	}
	if err := w.dispatchRepo.Report(ctx, dispatch.ID, w.id, status, errMsgPtr, log); err != nil {
		if errors.Is(err, domain.ErrDispatchNotInProgress) {
			// The timeout sweep or a shutdown release already reclaimed this
			// dispatch before our report landed — expected, not an error.
			w.logger.Warn("dispatch already reclaimed, dropping report", "dispatch_id", dispatch.ID)
			return
		}
		w.logger.Error("report dispatch outcome", "dispatch_id", dispatch.ID, "error", err)
		return
	}
	metrics.JobExecutionDuration.WithLabelValues(string(status)).Observe(result.Duration.Seconds())
	metrics.JobsCompletedTotal.WithLabelValues(string(status)).Inc()
	w.logger.Info("dispatch finished", "dispatch_id", dispatch.ID, "job_id", dispatch.JobID, "status", status, "duration", result.Duration)
}
