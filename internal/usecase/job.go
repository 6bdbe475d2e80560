package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/nextrun"
	"github.com/arjendijkstra/dispatchd/internal/repository"
	"github.com/arjendijkstra/dispatchd/internal/scriptpath"
	"github.com/arjendijkstra/dispatchd/internal/tzconvert"
)

// JobUsecase is the admin API's application layer over ScheduledJob
// definitions. It owns no SQL and no HTTP concerns, just validation and
// repository orchestration.
type JobUsecase struct {
	repo    repository.JobRepository
	scripts *scriptpath.Resolver
}

func NewJobUsecase(repo repository.JobRepository, scripts *scriptpath.Resolver) *JobUsecase {
	return &JobUsecase{repo: repo, scripts: scripts}
}

type CreateJobInput struct {
	Name            string
	ScriptPath      string
	ScheduleType    domain.ScheduleType
	IntervalSeconds int
	ScheduleTime    string
	ScheduleMinute  int
	ScheduleDay     int
	// Timezone is the IANA zone the caller entered ScheduleTime/ScheduleDay
	// in, if not already UTC. When set, it is normalized to UTC here using
	// the zone's offset as of now (spec §4.1 edge rule, Scenario B) before
	// anything is persisted or validated.
	Timezone string
}

func (u *JobUsecase) CreateJob(ctx context.Context, input CreateJobInput) (*domain.ScheduledJob, error) {
	if _, err := u.scripts.Resolve(input.ScriptPath); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scheduleTime, scheduleDay, err := normalizeScheduleTZ(input.ScheduleType, input.ScheduleTime, input.ScheduleDay, input.Timezone, now)
	if err != nil {
		return nil, err
	}

	job := &domain.ScheduledJob{
		Name:            input.Name,
		ScriptPath:      input.ScriptPath,
		ScheduleType:    input.ScheduleType,
		IntervalSeconds: input.IntervalSeconds,
		ScheduleTime:    scheduleTime,
		ScheduleMinute:  input.ScheduleMinute,
		ScheduleDay:     scheduleDay,
		IsActive:        true,
	}
	if err := job.Validate(); err != nil {
		return nil, err
	}
	if job.NextRun, err = nextrun.Compute(job, now); err != nil {
		return nil, err
	}

	created, err := u.repo.Create(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	return created, nil
}

// normalizeScheduleTZ converts a locally-entered HH:MM/weekday into its UTC
// form when tz is non-empty, leaving scheduleTime/scheduleDay untouched
// otherwise (interval/hourly/manual schedules carry no HH:MM to convert, or
// the caller already supplied UTC).
func normalizeScheduleTZ(scheduleType domain.ScheduleType, scheduleTime string, scheduleDay int, tz string, asOf time.Time) (string, int, error) {
	if tz == "" || tz == "UTC" {
		return scheduleTime, scheduleDay, nil
	}
	switch scheduleType {
	case domain.ScheduleDaily, domain.ScheduleWeekly, domain.ScheduleMonthly:
	default:
		return scheduleTime, scheduleDay, nil
	}

	result, err := tzconvert.Convert(scheduleTime, tz, asOf)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", domain.ErrInvalidSchedule, err)
	}
	if scheduleType == domain.ScheduleWeekly {
		scheduleDay = tzconvert.ShiftWeekday(scheduleDay, result.DayShift)
	}
	return result.ScheduleTime, scheduleDay, nil
}

func (u *JobUsecase) GetJob(ctx context.Context, id int64) (*domain.ScheduledJob, error) {
	job, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

type ListJobsInput struct {
	ActiveOnly bool
	Limit      int
	Offset     int
}

func (u *JobUsecase) ListJobs(ctx context.Context, input ListJobsInput) ([]*domain.ScheduledJob, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	jobs, err := u.repo.List(ctx, repository.ListJobsInput{
		ActiveOnly: input.ActiveOnly,
		Limit:      limit,
		Offset:     input.Offset,
	})
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	return jobs, nil
}

type UpdateJobInput struct {
	ID              int64
	Name            string
	ScriptPath      string
	ScheduleType    domain.ScheduleType
	IntervalSeconds int
	ScheduleTime    string
	ScheduleMinute  int
	ScheduleDay     int
	Timezone        string
}

func (u *JobUsecase) UpdateJob(ctx context.Context, input UpdateJobInput) (*domain.ScheduledJob, error) {
	existing, err := u.repo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}

	if _, err := u.scripts.Resolve(input.ScriptPath); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	scheduleTime, scheduleDay, err := normalizeScheduleTZ(input.ScheduleType, input.ScheduleTime, input.ScheduleDay, input.Timezone, now)
	if err != nil {
		return nil, err
	}

	existing.Name = input.Name
	existing.ScriptPath = input.ScriptPath
	existing.ScheduleType = input.ScheduleType
	existing.IntervalSeconds = input.IntervalSeconds
	existing.ScheduleTime = scheduleTime
	existing.ScheduleMinute = input.ScheduleMinute
	existing.ScheduleDay = scheduleDay

	if err := existing.Validate(); err != nil {
		return nil, err
	}
	// Re-derive next_run from the (possibly changed) schedule so an edit
	// that alters timing takes effect on the next dispatch cycle rather
	// than waiting on whatever next_run the old schedule had computed.
	if existing.ScheduleType == domain.ScheduleManual {
		existing.NextRun = nil
	} else if existing.NextRun, err = nextrun.Compute(existing, now); err != nil {
		return nil, err
	}

	updated, err := u.repo.Update(ctx, existing)
	if err != nil {
		return nil, fmt.Errorf("update job: %w", err)
	}
	return updated, nil
}

func (u *JobUsecase) SetActive(ctx context.Context, id int64, active bool) error {
	if err := u.repo.SetActive(ctx, id, active); err != nil {
		return fmt.Errorf("set job active: %w", err)
	}
	return nil
}

func (u *JobUsecase) DeleteJob(ctx context.Context, id int64) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}
	return nil
}

// RunNow forces next_run to the present so the next dispatch cycle fires
// the job regardless of its schedule_type (spec §6 "Run Now").
func (u *JobUsecase) RunNow(ctx context.Context, id int64) error {
	if err := u.repo.RunNow(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("run job now: %w", err)
	}
	return nil
}
