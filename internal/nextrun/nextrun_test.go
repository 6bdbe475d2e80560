package nextrun

import (
	"testing"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
)

func mustUTC(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

// Scenario A: daily schedule, UTC.
func TestComputeDaily(t *testing.T) {
	job := &domain.ScheduledJob{
		ScheduleType: domain.ScheduleDaily,
		ScheduleTime: "01:00",
	}
	now := mustUTC("2025-06-01T01:00:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-06-02T01:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeDailyLaterToday(t *testing.T) {
	job := &domain.ScheduledJob{ScheduleType: domain.ScheduleDaily, ScheduleTime: "01:00"}
	now := mustUTC("2025-06-01T00:30:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-06-01T01:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// Scenario E: monthly with short month.
func TestComputeMonthlySkipsShortMonth(t *testing.T) {
	job := &domain.ScheduledJob{
		ScheduleType: domain.ScheduleMonthly,
		ScheduleDay:  31,
		ScheduleTime: "00:00",
	}
	now := mustUTC("2025-01-31T00:01:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-03-31T00:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeMonthlySameMonthFuture(t *testing.T) {
	job := &domain.ScheduledJob{
		ScheduleType: domain.ScheduleMonthly,
		ScheduleDay:  15,
		ScheduleTime: "12:00",
	}
	now := mustUTC("2025-04-01T00:00:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-04-15T12:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeWeeklyWrapsWeek(t *testing.T) {
	// now is a Wednesday; schedule_day targets Monday (1) — must wrap to next week.
	job := &domain.ScheduledJob{
		ScheduleType: domain.ScheduleWeekly,
		ScheduleDay:  1, // Monday
		ScheduleTime: "09:00",
	}
	now := mustUTC("2025-06-04T10:00:00Z") // a Wednesday
	if now.Weekday() != time.Wednesday {
		t.Fatalf("test fixture drifted: %v is not a Wednesday", now)
	}

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-06-09T09:00:00Z") // following Monday
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeHourlyByMinute(t *testing.T) {
	job := &domain.ScheduledJob{ScheduleType: domain.ScheduleHourly, ScheduleMinute: 15}
	now := mustUTC("2025-06-01T10:20:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-06-01T11:15:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestComputeInterval(t *testing.T) {
	job := &domain.ScheduledJob{ScheduleType: domain.ScheduleInterval, IntervalSeconds: 90}
	now := mustUTC("2025-06-01T10:20:00Z")

	got, err := Compute(job, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := mustUTC("2025-06-01T10:21:30Z")
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

// Scenario F: manual jobs never auto-reschedule.
func TestComputeManualIsNil(t *testing.T) {
	job := &domain.ScheduledJob{ScheduleType: domain.ScheduleManual}
	got, err := Compute(job, time.Now())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil next_run for manual job, got %v", got)
	}
}

// "Strictly after now" must hold even when now lands exactly on a boundary.
func TestComputeNeverEqualsNow(t *testing.T) {
	now := mustUTC("2025-06-01T01:00:00Z")
	cases := []*domain.ScheduledJob{
		{ScheduleType: domain.ScheduleHourly, ScheduleMinute: 0},
		{ScheduleType: domain.ScheduleDaily, ScheduleTime: "01:00"},
		{ScheduleType: domain.ScheduleWeekly, ScheduleDay: int(now.Weekday()), ScheduleTime: "01:00"},
		{ScheduleType: domain.ScheduleMonthly, ScheduleDay: now.Day(), ScheduleTime: "01:00"},
	}
	for _, job := range cases {
		got, err := Compute(job, now)
		if err != nil {
			t.Fatalf("%v: unexpected error: %v", job.ScheduleType, err)
		}
		if !got.After(now) {
			t.Fatalf("%v: next run %v is not strictly after now %v", job.ScheduleType, got, now)
		}
	}
}

func TestComputeInvalidSchedule(t *testing.T) {
	job := &domain.ScheduledJob{ScheduleType: domain.ScheduleDaily, ScheduleTime: "bad"}
	if _, err := Compute(job, time.Now()); err != domain.ErrInvalidSchedule {
		t.Fatalf("expected ErrInvalidSchedule, got %v", err)
	}
}
