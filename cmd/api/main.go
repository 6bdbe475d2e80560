// Command api runs the read-mostly admin HTTP surface described in spec §4:
// ScheduledJob CRUD, dispatch history, and the active-workers view. It never
// writes a JobDispatch or WorkerRegistration row itself.
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
	httptransport "github.com/arjendijkstra/dispatchd/internal/http"
	"github.com/arjendijkstra/dispatchd/internal/http/handler"
	"github.com/arjendijkstra/dispatchd/internal/health"
	"github.com/arjendijkstra/dispatchd/internal/infrastructure/postgres"
	ctxlog "github.com/arjendijkstra/dispatchd/internal/log"
	"github.com/arjendijkstra/dispatchd/internal/metrics"
	"github.com/arjendijkstra/dispatchd/internal/scriptpath"
	"github.com/arjendijkstra/dispatchd/internal/usecase"
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

	jobRepo := postgres.NewJobRepository(pool)
	dispatchRepo := postgres.NewDispatchRepository(pool)
	workerRepo := postgres.NewWorkerRepository(pool)
	execLogRepo := postgres.NewExecutionLogRepository(pool)

	jobUsecase := usecase.NewJobUsecase(jobRepo, scripts)
	dispatchUsecase := usecase.NewDispatchUsecase(dispatchRepo)
	workerUsecase := usecase.NewWorkerUsecase(workerRepo, cfg.SchedulerOfflineThreshold())
	execLogUsecase := usecase.NewExecutionLogUsecase(execLogRepo)

	jobHandler := handler.NewJobHandler(jobUsecase, execLogUsecase, logger)
	dispatchHandler := handler.NewDispatchHandler(dispatchUsecase, logger)
	workerHandler := handler.NewWorkerHandler(workerUsecase, logger)

	metrics.Register()
	checker := health.NewChecker(pool, logger, prometheus.DefaultRegisterer)

	srv := http.Server{
		Addr:    ":" + cfg.AdminPort,
		Handler: httptransport.NewRouter(logger, jobHandler, dispatchHandler, workerHandler),
	}
	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("admin api started", "port", cfg.AdminPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("admin api", "error", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("admin api shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}

	logger.Info("admin api shut down")
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
