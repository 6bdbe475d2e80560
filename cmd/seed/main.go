// seed inserts a handful of ScheduledJob rows into the local dev database,
// pointing at the sample scripts under scripts/.
// Run: go run ./cmd/seed
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/arjendijkstra/dispatchd/internal/domain"
	"github.com/arjendijkstra/dispatchd/internal/infrastructure/postgres"
	"github.com/arjendijkstra/dispatchd/internal/nextrun"
)

type jobSpec struct {
	name            string
	scriptPath      string
	scheduleType    string
	intervalSeconds int
	scheduleTime    string
	scheduleMinute  int
	scheduleDay     int
}

var jobs = []jobSpec{
	{name: "seed-interval-hello", scriptPath: "hello.sh", scheduleType: "interval", intervalSeconds: 60},
	{name: "seed-hourly-hello", scriptPath: "hello.sh", scheduleType: "hourly", scheduleMinute: 15},
	{name: "seed-daily-hello", scriptPath: "hello.sh", scheduleType: "daily", scheduleTime: "03:00"},
	{name: "seed-weekly-hello", scriptPath: "hello.sh", scheduleType: "weekly", scheduleTime: "09:00", scheduleDay: 1},
	{name: "seed-monthly-hello", scriptPath: "hello.sh", scheduleType: "monthly", scheduleTime: "00:00", scheduleDay: 1},
	{name: "seed-manual-fail", scriptPath: "fail.sh", scheduleType: "manual"},
	{name: "seed-manual-slow", scriptPath: "slow.sh", scheduleType: "manual"},
}

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := postgres.NewPool(ctx, dbURL, 5)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer pool.Close()

	now := time.Now().UTC()
	var inserted, skipped int
	for _, spec := range jobs {
		// A non-manual active job's next_run must be non-null (spec §3
		// invariant); manual jobs only run via "Run Now", so nextrun.Compute
		// correctly leaves theirs nil.
		next, err := nextrun.Compute(&domain.ScheduledJob{
			ScheduleType:    domain.ScheduleType(spec.scheduleType),
			IntervalSeconds: spec.intervalSeconds,
			ScheduleTime:    spec.scheduleTime,
			ScheduleMinute:  spec.scheduleMinute,
			ScheduleDay:     spec.scheduleDay,
		}, now)
		if err != nil {
			log.Fatalf("compute next_run for %s: %v", spec.name, err)
		}

		tag, err := pool.Exec(ctx, `
			INSERT INTO scheduled_jobs (
				name, script_path, schedule_type, interval_seconds,
				schedule_time, schedule_minute, schedule_day, is_active, next_run
			) VALUES ($1, $2, $3, $4, $5, $6, $7, true, $8)
			ON CONFLICT (name) DO NOTHING`,
			spec.name, spec.scriptPath, spec.scheduleType, spec.intervalSeconds,
			spec.scheduleTime, spec.scheduleMinute, spec.scheduleDay, next,
		)
		if err != nil {
			log.Fatalf("insert job %s: %v", spec.name, err)
		}
		if tag.RowsAffected() == 0 {
			skipped++
		} else {
			inserted++
		}
	}

	fmt.Println("Seed complete")
	fmt.Printf("  Jobs created: %d (skipped %d already existing)\n", inserted, skipped)
	fmt.Println()
	fmt.Println("  curl -s http://localhost:8080/jobs")
	fmt.Println("  curl -s -X POST http://localhost:8080/jobs/1/run-now")
}
