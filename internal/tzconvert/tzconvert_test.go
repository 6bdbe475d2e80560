package tzconvert

import (
	"testing"
	"time"
)

// Scenario B: a UTC+8 user enters "00:30" local for a daily job, saved at
// 2025-06-01 09:00 UTC+8 (2025-06-01T01:00:00Z). The stored schedule_time
// must be "16:30" — not a historical or cached offset, the zone's offset at
// save time.
func TestConvertScenarioB(t *testing.T) {
	asOf := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)

	got, err := Convert("00:30", "Etc/GMT-8", asOf) // Etc/GMT-8 is a fixed UTC+8 zone
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ScheduleTime != "16:30" {
		t.Fatalf("got schedule_time %q, want %q", got.ScheduleTime, "16:30")
	}
}

func TestConvertUnknownZone(t *testing.T) {
	_, err := Convert("00:30", "Not/AZone", time.Now())
	if err == nil {
		t.Fatal("expected error for unknown zone")
	}
}

func TestConvertInvalidHHMM(t *testing.T) {
	_, err := Convert("25:99", "UTC", time.Now())
	if err == nil {
		t.Fatal("expected error for invalid HH:MM")
	}
}

func TestShiftWeekdayWraps(t *testing.T) {
	if got := ShiftWeekday(0, -1); got != 6 {
		t.Fatalf("Sunday shifted back should wrap to Saturday, got %d", got)
	}
	if got := ShiftWeekday(6, 1); got != 0 {
		t.Fatalf("Saturday shifted forward should wrap to Sunday, got %d", got)
	}
}
