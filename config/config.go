// Package config loads process configuration from the environment using
// caarlos0/env struct tags plus a go-playground/validator pass, refusing
// to start on an invalid config.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

// Config holds every tunable shared across the scheduler, worker, and admin
// API processes. Each binary loads the same struct and only reads the
// fields relevant to it (spec §6). Validation covers the whole struct, so
// DATABASE_URL and WORKER_SCRIPT_ROOT must be set for every binary.
type Config struct {
	Env      string `env:"ENV" envDefault:"local" validate:"required,oneof=local staging production"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info" validate:"required,oneof=debug info warn error"`

	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`
	DBMaxConns  int32  `env:"DB_MAX_CONNS" envDefault:"10" validate:"min=1,max=200"`

	AdminPort   string `env:"ADMIN_PORT" envDefault:"8080"`
	MetricsPort string `env:"METRICS_PORT" envDefault:"9090"`

	// Scheduler tunables, spec §6 `scheduler.*`.
	SchedulerPollIntervalSec      int `env:"SCHEDULER_POLL_INTERVAL_SEC" envDefault:"10" validate:"min=1"`
	SchedulerDispatchLockSec      int `env:"SCHEDULER_DISPATCH_LOCK_SEC" envDefault:"300" validate:"min=1"`
	SchedulerSweepIntervalSec     int `env:"SCHEDULER_SWEEP_INTERVAL_SEC" envDefault:"60" validate:"min=1"`
	SchedulerTimeoutThresholdSec  int `env:"SCHEDULER_TIMEOUT_THRESHOLD_SEC" envDefault:"600" validate:"min=1"`
	SchedulerMaxRetryAttempts     int `env:"SCHEDULER_MAX_RETRY_ATTEMPTS" envDefault:"3" validate:"min=0,max=20"`
	SchedulerCleanupRetentionDays int `env:"SCHEDULER_CLEANUP_RETENTION_DAYS" envDefault:"30" validate:"min=1"`
	SchedulerOfflineThresholdSec  int `env:"SCHEDULER_WORKER_OFFLINE_THRESHOLD_SEC" envDefault:"180" validate:"min=1"`
	SchedulerReaperIntervalSec    int `env:"SCHEDULER_REAPER_INTERVAL_SEC" envDefault:"100" validate:"min=1"`
	SchedulerCleanupIntervalSec   int `env:"SCHEDULER_CLEANUP_INTERVAL_SEC" envDefault:"3600" validate:"min=1"`

	// Worker tunables, spec §6 `worker.*`.
	WorkerPollIntervalSec    int    `env:"WORKER_POLL_INTERVAL_SEC" envDefault:"5" validate:"min=1"`
	WorkerMaxPollIntervalSec int    `env:"WORKER_MAX_POLL_INTERVAL_SEC" envDefault:"60" validate:"min=1"`
	WorkerHeartbeatSec       int    `env:"WORKER_HEARTBEAT_INTERVAL_SEC" envDefault:"30" validate:"min=1"`
	WorkerJobTimeoutSec      int    `env:"WORKER_JOB_TIMEOUT_SEC" envDefault:"600" validate:"min=1"`
	WorkerShutdownGraceSec   int    `env:"WORKER_SHUTDOWN_GRACE_SEC" envDefault:"30" validate:"min=1"`
	WorkerScriptRoot         string `env:"WORKER_SCRIPT_ROOT,required" validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SlogLevel converts LOG_LEVEL to a slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) SchedulerPollInterval() time.Duration {
	return time.Duration(c.SchedulerPollIntervalSec) * time.Second
}

func (c *Config) SchedulerDispatchLock() time.Duration {
	return time.Duration(c.SchedulerDispatchLockSec) * time.Second
}

func (c *Config) SchedulerSweepInterval() time.Duration {
	return time.Duration(c.SchedulerSweepIntervalSec) * time.Second
}

func (c *Config) SchedulerTimeoutThreshold() time.Duration {
	return time.Duration(c.SchedulerTimeoutThresholdSec) * time.Second
}

func (c *Config) SchedulerCleanupRetention() time.Duration {
	return time.Duration(c.SchedulerCleanupRetentionDays) * 24 * time.Hour
}

func (c *Config) SchedulerOfflineThreshold() time.Duration {
	return time.Duration(c.SchedulerOfflineThresholdSec) * time.Second
}

func (c *Config) SchedulerReaperInterval() time.Duration {
	return time.Duration(c.SchedulerReaperIntervalSec) * time.Second
}

func (c *Config) SchedulerCleanupInterval() time.Duration {
	return time.Duration(c.SchedulerCleanupIntervalSec) * time.Second
}

func (c *Config) WorkerPollInterval() time.Duration {
	return time.Duration(c.WorkerPollIntervalSec) * time.Second
}

func (c *Config) WorkerMaxPollInterval() time.Duration {
	return time.Duration(c.WorkerMaxPollIntervalSec) * time.Second
}

func (c *Config) WorkerHeartbeatInterval() time.Duration {
	return time.Duration(c.WorkerHeartbeatSec) * time.Second
}

func (c *Config) WorkerJobTimeout() time.Duration {
	return time.Duration(c.WorkerJobTimeoutSec) * time.Second
}

func (c *Config) WorkerShutdownGrace() time.Duration {
	return time.Duration(c.WorkerShutdownGraceSec) * time.Second
}
