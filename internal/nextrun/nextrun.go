// Package nextrun computes the next UTC instant at which a ScheduledJob
// becomes eligible for dispatch, per spec §4.1. All inputs and outputs are
// UTC instants; callers at the write boundary (internal/tzconvert) are
// responsible for converting any locally-entered time before it reaches here.
package nextrun

import (
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

// Compute returns the next run time for job, given the current UTC instant
// now. It returns nil for a manual job (never auto-reschedules).
//
// "Strictly after now" is enforced throughout: the returned instant is never
// equal to now, so storing it back as next_run cannot immediately re-fire on
// the following dispatch cycle (spec §4.1 edge rule).
func Compute(job *domain.ScheduledJob, now time.Time) (*time.Time, error) {
	now = now.UTC()

	switch job.ScheduleType {
	case domain.ScheduleInterval:
		if job.IntervalSeconds <= 0 {
			return nil, domain.ErrInvalidSchedule
		}
		next := now.Add(time.Duration(job.IntervalSeconds) * time.Second)
		return &next, nil

	case domain.ScheduleHourly:
		next := nextHourly(now, job.ScheduleMinute)
		return &next, nil

	case domain.ScheduleDaily:
		hh, mm, err := parseHHMM(job.ScheduleTime)
		if err != nil {
			return nil, err
		}
		next := nextDaily(now, hh, mm)
		return &next, nil

	case domain.ScheduleWeekly:
		hh, mm, err := parseHHMM(job.ScheduleTime)
		if err != nil {
			return nil, err
		}
		next := nextWeekly(now, time.Weekday(job.ScheduleDay), hh, mm)
		return &next, nil

	case domain.ScheduleMonthly:
		hh, mm, err := parseHHMM(job.ScheduleTime)
		if err != nil {
			return nil, err
		}
		next := nextMonthly(now, job.ScheduleDay, hh, mm)
		return &next, nil

	case domain.ScheduleManual:
		return nil, nil

	default:
		return nil, domain.ErrInvalidSchedule
	}
}

func parseHHMM(s string) (hh, mm int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, domain.ErrInvalidSchedule
	}
	hh, ok1 := digits2(s[0:2])
	mm, ok2 := digits2(s[3:5])
	if !ok1 || !ok2 || hh > 23 || mm > 59 {
		return 0, 0, domain.ErrInvalidSchedule
	}
	return hh, mm, nil
}

func digits2(s string) (int, bool) {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

// nextHourly returns the next instant whose minute equals minute and which
// is strictly greater than now.
func nextHourly(now time.Time, minute int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), minute, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = candidate.Add(time.Hour)
	}
	return candidate
}

// nextDaily returns today at hh:mm if that is strictly after now, else tomorrow.
func nextDaily(now time.Time, hh, mm int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, time.UTC)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// nextWeekly returns the next instant on weekday at hh:mm strictly after now,
// wrapping across the week boundary.
func nextWeekly(now time.Time, weekday time.Weekday, hh, mm int) time.Time {
	candidate := time.Date(now.Year(), now.Month(), now.Day(), hh, mm, 0, 0, time.UTC)
	daysUntil := (int(weekday) - int(candidate.Weekday()) + 7) % 7
	candidate = candidate.AddDate(0, 0, daysUntil)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}

// nextMonthly returns the next month whose day-of-month exists and whose
// hh:mm is strictly after now; months whose length is shorter than day are
// skipped entirely (spec Scenario E — day=31 skips February).
func nextMonthly(now time.Time, day, hh, mm int) time.Time {
	year, month := now.Year(), now.Month()

	// Try the current month first, then walk forward until `day` exists.
	for i := 0; i < 48; i++ {
		if daysIn(year, month) >= day {
			candidate := time.Date(year, month, day, hh, mm, 0, 0, time.UTC)
			if candidate.After(now) {
				return candidate
			}
		}
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	// Unreachable for any valid day (1-31): every 48-month window contains
	// at least one long-enough month after the loop's starting point.
	return time.Date(year, month, 1, hh, mm, 0, 0, time.UTC)
}

func daysIn(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}
