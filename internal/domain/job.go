package domain

import (
	"errors"
	"time"
)

var (
	ErrJobNotFound       = errors.New("scheduled job not found")
	ErrInvalidSchedule   = errors.New("schedule fields do not match schedule_type")
	ErrInvalidScriptPath = errors.New("script path escapes the script root")
)

// ScheduleType is the discriminator for how a ScheduledJob's next_run is computed.
type ScheduleType string

const (
	ScheduleInterval ScheduleType = "interval"
	ScheduleHourly   ScheduleType = "hourly"
	ScheduleDaily    ScheduleType = "daily"
	ScheduleWeekly   ScheduleType = "weekly"
	ScheduleMonthly  ScheduleType = "monthly"
	ScheduleManual   ScheduleType = "manual"
)

// ScheduledJob is the durable definition of a recurring or manual task.
//
// ScheduleTime is stored as "HH:MM" UTC for daily/weekly/monthly. Hourly
// schedules use ScheduleMinute, an integer 0-59, so callers never parse a
// string for it (§9 open question); ScheduleTime is not read for hourly.
type ScheduledJob struct {
	ID              int64
	Name            string
	ScriptPath      string
	ScheduleType    ScheduleType
	IntervalSeconds int
	ScheduleTime    string
	ScheduleMinute  int
	ScheduleDay     int
	IsActive        bool

	NextRun           *time.Time
	LastDispatchedAt  *time.Time
	DispatchLockUntil *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Validate checks that the fields ScheduleType needs (§4.1) are present and
// in range. Fields that the schedule type does not use are not checked.
func (j *ScheduledJob) Validate() error {
	switch j.ScheduleType {
	case ScheduleInterval:
		if j.IntervalSeconds <= 0 {
			return ErrInvalidSchedule
		}
	case ScheduleHourly:
		if j.ScheduleMinute < 0 || j.ScheduleMinute > 59 {
			return ErrInvalidSchedule
		}
	case ScheduleDaily:
		if !validHHMM(j.ScheduleTime) {
			return ErrInvalidSchedule
		}
	case ScheduleWeekly:
		if !validHHMM(j.ScheduleTime) || j.ScheduleDay < 0 || j.ScheduleDay > 6 {
			return ErrInvalidSchedule
		}
	case ScheduleMonthly:
		if !validHHMM(j.ScheduleTime) || j.ScheduleDay < 1 || j.ScheduleDay > 31 {
			return ErrInvalidSchedule
		}
	case ScheduleManual:
		// no schedule fields required
	default:
		return ErrInvalidSchedule
	}
	return nil
}

func validHHMM(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	h, ok := atoi2(s[0:2])
	if !ok || h > 23 {
		return false
	}
	m, ok := atoi2(s[3:5])
	if !ok || m > 59 {
		return false
	}
	return true
}

func atoi2(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
