// Command worker runs a single claim-execute-report loop against the
// scripts under WORKER_SCRIPT_ROOT, per spec §4.3. Run many instances of
// this binary to get fleet parallelism.
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
	"github.com/arjendijkstra/dispatchd/internal/scriptpath"
	"github.com/arjendijkstra/dispatchd/internal/workerproc"
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

	scripts, err := scriptpath.NewResolver(cfg.WorkerScriptRoot)
	if err != nil {
		stop()
		log.Fatalf("script root: %v", err)
	}

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	dispatchRepo := postgres.NewDispatchRepository(pool)
	jobRepo := postgres.NewJobRepository(pool)
	workerRepo := postgres.NewWorkerRepository(pool)

	w := workerproc.NewWorker(dispatchRepo, jobRepo, workerRepo, scripts, logger, workerproc.Config{
		PollInterval:      cfg.WorkerPollInterval(),
		MaxPollInterval:   cfg.WorkerMaxPollInterval(),
		HeartbeatInterval: cfg.WorkerHeartbeatInterval(),
		JobTimeout:        cfg.WorkerJobTimeout(),
		ShutdownGrace:     cfg.WorkerShutdownGrace(),
	})

	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		if err := w.Start(ctx); err != nil {
			logger.Error("worker stopped with error", "error", err)
		}
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

	<-workerDone

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("worker shut down")
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
