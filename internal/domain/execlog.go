package domain

import "time"

// LogStatus is the terminal outcome recorded for a dispatch's execution.
type LogStatus string

const (
	LogSuccess LogStatus = "SUCCESS"
	LogFailure LogStatus = "FAILURE"
	LogError   LogStatus = "ERROR"
	LogTimeout LogStatus = "TIMEOUT"
)

// JobExecutionLog is an immutable record of a completed execution attempt.
type JobExecutionLog struct {
	ID        int64
	JobID     int64
	RunTime   time.Time
	Status    LogStatus
	LogOutput string
}
