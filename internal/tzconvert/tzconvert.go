// Package tzconvert converts a locally-entered HH:MM + IANA zone name into
// the UTC representation a ScheduledJob persists, using the zone's offset at
// the moment of the call rather than a cached historical offset (spec §4.1
// edge rule, Scenario B). Mixing naive and timezone-aware arithmetic was a
// prior bug class (spec §9) this package exists specifically to close off.
package tzconvert

import (
	"fmt"
	"time"
)

// Result is the UTC-normalized form of a locally-entered daily/weekly/monthly
// time, ready to persist directly onto a ScheduledJob.
type Result struct {
	ScheduleTime string // "HH:MM" in UTC
	DayShift     int    // +1 if the UTC instant rolled onto the next calendar day, -1 if the previous, else 0
}

// Convert takes a local HH:MM in the named zone, evaluated as of asOf (so the
// zone's currently-in-effect offset — including DST — is used), and returns
// its UTC HH:MM plus any day rollover relative to asOf's local calendar day.
func Convert(localHHMM, zoneName string, asOf time.Time) (Result, error) {
	loc, err := time.LoadLocation(zoneName)
	if err != nil {
		return Result{}, fmt.Errorf("load location %q: %w", zoneName, err)
	}

	hh, mm, err := splitHHMM(localHHMM)
	if err != nil {
		return Result{}, err
	}

	localAsOf := asOf.In(loc)
	local := time.Date(localAsOf.Year(), localAsOf.Month(), localAsOf.Day(), hh, mm, 0, 0, loc)
	utc := local.UTC()

	dayShift := utc.Day() - localAsOf.Day()
	// Normalize month/year-boundary rollovers to a simple -1/0/+1 signal.
	switch {
	case dayShift > 1:
		dayShift = -1
	case dayShift < -1:
		dayShift = 1
	}

	return Result{
		ScheduleTime: fmt.Sprintf("%02d:%02d", utc.Hour(), utc.Minute()),
		DayShift:     dayShift,
	}, nil
}

// ShiftWeekday applies a DayShift produced by Convert to a 0-6 (Sun-Sat)
// weekday value, wrapping across the week boundary.
func ShiftWeekday(weekday, dayShift int) int {
	return ((weekday+dayShift)%7 + 7) % 7
}

func splitHHMM(s string) (hh, mm int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", s)
	}
	if _, err := fmt.Sscanf(s, "%02d:%02d", &hh, &mm); err != nil {
		return 0, 0, fmt.Errorf("invalid HH:MM %q: %w", s, err)
	}
	if hh < 0 || hh > 23 || mm < 0 || mm > 59 {
		return 0, 0, fmt.Errorf("invalid HH:MM %q", s)
	}
	return hh, mm, nil
}
