// Command scheduler runs the dispatch cycle, timeout sweep, worker reaper,
// and cleanup sub-tasks described in spec §4.2. It holds no HTTP surface of
// its own besides /metrics, /healthz, /readyz.
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arjendijkstra/dispatchd/config"
	"github.com/arjendijkstra/dispatchd/internal/health"
	"github.com/arjendijkstra/dispatchd/internal/infrastructure/postgres"
	ctxlog "github.com/arjendijkstra/dispatchd/internal/log"
	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/scheduler"
	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := newLogger(cfg.Env, cfg.SlogLevel())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		stop()
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	logger.Info("db connected")

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	jobRepo := postgres.NewJobRepository(pool)
	dispatchRepo := postgres.NewDispatchRepository(pool)
	workerRepo := postgres.NewWorkerRepository(pool)

	dispatcher := scheduler.NewDispatcher(jobRepo, logger, cfg.SchedulerPollInterval(), cfg.SchedulerDispatchLock())
	sweep := scheduler.NewTimeoutSweep(dispatchRepo, logger, cfg.SchedulerSweepInterval(), cfg.SchedulerTimeoutThreshold(), cfg.SchedulerOfflineThreshold(), cfg.SchedulerMaxRetryAttempts)
	reaper := scheduler.NewReaper(workerRepo, logger, cfg.SchedulerReaperInterval(), cfg.SchedulerOfflineThreshold())
	cleanup := scheduler.NewCleanup(dispatchRepo, logger, cfg.SchedulerCleanupInterval(), cfg.SchedulerCleanupRetention())

	controller := scheduler.NewController(logger, dispatcher, sweep, reaper, cleanup)
	controllerDone := make(chan struct{})
	go func() {
		defer close(controllerDone)
		controller.Run(ctx)
	}()

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)
	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	<-controllerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("scheduler shut down")
}

func newLogger(env string, level slog.Level) *slog.Logger {
	var inner slog.Handler
	if env == "local" {
		inner = tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	} else {
		inner = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		})
	}
	return slog.New(ctxlog.NewContextHandler(inner))
}
