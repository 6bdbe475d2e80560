package domain

import (
	"errors"
	"time"
)

var ErrWorkerNotFound = errors.New("worker registration not found")

// WorkerStatus is the WorkerRegistration lifecycle (spec §4.4):
// (absent) -> IDLE <-> BUSY -> (absent).
type WorkerStatus string

const (
	WorkerIdle    WorkerStatus = "IDLE"
	WorkerBusy    WorkerStatus = "BUSY"
	WorkerOffline WorkerStatus = "OFFLINE"
)

// WorkerRegistration is the liveness record of a worker process.
type WorkerRegistration struct {
	WorkerID      string
	Hostname      string
	Platform      string
	StartedAt     time.Time
	LastHeartbeat time.Time
	Status        WorkerStatus
	JobsProcessed int64
	CurrentJobID  *int64
	ProcessID     int
}
