package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/repository"
	"github.com/arjendijkstra/dispatchd/internal/scriptpath"
	"github.com/arjendijkstra/dispatchd/internal/usecase"
)

// ---- fakes ----

type fakeJobRepo struct {
	created *domain.ScheduledJob
	updated *domain.ScheduledJob
	getByID func(ctx context.Context, id int64) (*domain.ScheduledJob, error)
}

func (r *fakeJobRepo) Create(_ context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error) {
	r.created = job
	return job, nil
}

func (r *fakeJobRepo) GetByID(ctx context.Context, id int64) (*domain.ScheduledJob, error) {
	return r.getByID(ctx, id)
}

func (r *fakeJobRepo) List(context.Context, repository.ListJobsInput) ([]*domain.ScheduledJob, error) {
	return nil, nil
}

func (r *fakeJobRepo) Update(_ context.Context, job *domain.ScheduledJob) (*domain.ScheduledJob, error) {
	r.updated = job
	return job, nil
}

func (r *fakeJobRepo) SetActive(context.Context, int64, bool) error { return nil }
func (r *fakeJobRepo) Delete(context.Context, int64) error          { return nil }
func (r *fakeJobRepo) RunNow(context.Context, int64, time.Time) error {
	return nil
}
func (r *fakeJobRepo) DispatchDue(context.Context, time.Time, int, time.Duration, func(*domain.ScheduledJob) (*time.Time, error)) ([]*domain.JobDispatch, error) {
	return nil, nil
}

func newResolver(t *testing.T) *scriptpath.Resolver {
	t.Helper()
	r, err := scriptpath.NewResolver(t.TempDir())
	if err != nil {
		t.Fatalf("new resolver: %v", err)
	}
	return r
}

// Scenario A: a daily job with schedule_time 01:00 gets a non-null,
// current initial next_run on creation, not left null.
func TestCreateJobSetsInitialNextRun(t *testing.T) {
	repo := &fakeJobRepo{}
	u := usecase.NewJobUsecase(repo, newResolver(t))

	job, err := u.CreateJob(context.Background(), usecase.CreateJobInput{
		Name:         "daily-report",
		ScriptPath:   "report.sh",
		ScheduleType: domain.ScheduleDaily,
		ScheduleTime: "01:00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.NextRun == nil {
		t.Fatal("expected non-nil next_run for a non-manual active job")
	}
	if !job.NextRun.After(time.Now().UTC().Add(-time.Minute)) {
		t.Fatalf("next_run %v looks stale", job.NextRun)
	}
}

// Scenario F: a manual job's next_run stays null on creation.
func TestCreateManualJobLeavesNextRunNil(t *testing.T) {
	repo := &fakeJobRepo{}
	u := usecase.NewJobUsecase(repo, newResolver(t))

	job, err := u.CreateJob(context.Background(), usecase.CreateJobInput{
		Name:         "one-off",
		ScriptPath:   "oneoff.sh",
		ScheduleType: domain.ScheduleManual,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.NextRun != nil {
		t.Fatalf("expected nil next_run for a manual job, got %v", job.NextRun)
	}
}

// Scenario B: a UTC+8 user enters "00:30" local for a daily job; the stored
// schedule_time must be the UTC representation, not the raw local value.
func TestCreateJobConvertsLocalScheduleTimeToUTC(t *testing.T) {
	repo := &fakeJobRepo{}
	u := usecase.NewJobUsecase(repo, newResolver(t))

	job, err := u.CreateJob(context.Background(), usecase.CreateJobInput{
		Name:         "tz-job",
		ScriptPath:   "tz.sh",
		ScheduleType: domain.ScheduleDaily,
		ScheduleTime: "00:30",
		Timezone:     "Etc/GMT-8", // fixed UTC+8
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.ScheduleTime != "16:30" {
		t.Fatalf("got schedule_time %q, want %q", job.ScheduleTime, "16:30")
	}
}

func TestUpdateJobRecomputesNextRun(t *testing.T) {
	existing := &domain.ScheduledJob{
		ID:           1,
		ScheduleType: domain.ScheduleDaily,
		ScheduleTime: "01:00",
	}
	repo := &fakeJobRepo{
		getByID: func(context.Context, int64) (*domain.ScheduledJob, error) {
			return existing, nil
		},
	}
	u := usecase.NewJobUsecase(repo, newResolver(t))

	job, err := u.UpdateJob(context.Background(), usecase.UpdateJobInput{
		ID:           1,
		Name:         "daily-report",
		ScriptPath:   "report.sh",
		ScheduleType: domain.ScheduleInterval,
		// schedule_type switched to interval: schedule_time/day no longer apply.
		IntervalSeconds: 120,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.NextRun == nil {
		t.Fatal("expected non-nil next_run after switching to an interval schedule")
	}
}
