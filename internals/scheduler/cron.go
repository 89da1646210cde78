// Package scheduler runs the periodic maintenance jobs.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	studentService "campusorbit_backend/internals/features/academics/students/service"
	feeService "campusorbit_backend/internals/features/finance/fees/service"
	schoolModel "campusorbit_backend/internals/features/schools/schools/model"
	"campusorbit_backend/internals/helpers/dbtime"
)

type Config struct {
	OverdueSchedule string // empty disables the overdue sweep
	RollSchedule    string // empty disables the roll-number reconcile
	Location        *time.Location // cron clock; sweeps use each school's timezone
	JobTimeout      time.Duration
}

// Start registers the jobs and starts the cron runner. Overlapping runs of
// the same job are skipped.
func Start(db *gorm.DB, cfg Config) (*cron.Cron, error) {
	if cfg.Location == nil {
		cfg.Location = dbtime.LoadLocation(dbtime.DefaultTimezone)
	}
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 4 * time.Minute
	}

	c := cron.New(
		cron.WithLocation(cfg.Location),
		cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)),
	)

	if cfg.OverdueSchedule != "" {
		if _, err := c.AddFunc(cfg.OverdueSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
			defer cancel()
			RunOverdueSweep(ctx, db, time.Now())
		}); err != nil {
			return nil, err
		}
		log.Printf("[CRON] overdue sweep schedule=%q tz=%s", cfg.OverdueSchedule, cfg.Location)
	}

	if cfg.RollSchedule != "" {
		if _, err := c.AddFunc(cfg.RollSchedule, func() {
			ctx, cancel := context.WithTimeout(context.Background(), cfg.JobTimeout)
			defer cancel()
			RunRollReconcile(ctx, db)
		}); err != nil {
			return nil, err
		}
		log.Printf("[CRON] roll reconcile schedule=%q", cfg.RollSchedule)
	}

	c.Start()
	return c, nil
}

// RunOverdueSweep sweeps each school against its own calendar date. A failing
// school is logged and does not stop the others.
func RunOverdueSweep(ctx context.Context, db *gorm.DB, now time.Time) int64 {
	var schools []schoolModel.School
	if err := db.WithContext(ctx).
		Select("school_id", "school_timezone").
		Find(&schools).Error; err != nil {
		log.Printf("[CRON] overdue sweep: load schools: %v", err)
		return 0
	}

	var total int64
	for _, sc := range schools {
		if ctx.Err() != nil {
			log.Printf("[CRON] overdue sweep stopped: %v", ctx.Err())
			break
		}
		today := dbtime.TodayIn(dbtime.LoadLocation(sc.SchoolTimezone), now)
		n, err := feeService.SweepOverdue(ctx, db, sc.SchoolID, today)
		if err != nil {
			log.Printf("[CRON] overdue sweep: %v", err)
			continue
		}
		total += n
	}
	return total
}

func RunRollReconcile(ctx context.Context, db *gorm.DB) {
	results, failures, err := studentService.RecalculateAll(ctx, db, studentService.RecalcFilter{})
	if err != nil {
		log.Printf("[CRON] roll reconcile: %v", err)
		return
	}
	updated := 0
	for _, r := range results {
		updated += r.UpdatedCount
	}
	log.Printf("[CRON] roll reconcile sections=%d updated=%d failed=%d", len(results), updated, len(failures))
}
