// Package worker delivers absence alerts once they are due.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusorbit_backend/internals/features/attendance/student_attendance/model"
	"campusorbit_backend/internals/features/attendance/student_attendance/service"
	helper "campusorbit_backend/internals/helpers"
)

type Config struct {
	Interval  time.Duration
	BatchSize int
	// Grace keeps the database sweep from racing the queue for alerts that
	// are only just due.
	Grace time.Duration
}

type Worker struct {
	alerts *service.AlertService
	cfg    Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func New(alerts *service.AlertService, cfg Config) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Grace < 0 {
		cfg.Grace = 0
	}
	return &Worker{alerts: alerts, cfg: cfg}
}

// Start runs the poll loop until Stop is called or ctx ends.
func (w *Worker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.run(ctx)
	log.Printf("[ALERT] worker started interval=%s batch=%d", w.cfg.Interval, w.cfg.BatchSize)
}

func (w *Worker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	log.Println("[ALERT] worker stopped")
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Tick(ctx)
		}
	}
}

type TickStats struct {
	Sent      int
	Cancelled int
	Failed    int
	Errors    int
}

// Tick delivers everything currently due: first what the queue hands out,
// then scheduled alerts the queue never saw.
func (w *Worker) Tick(ctx context.Context) TickStats {
	var stats TickStats
	seen := map[uuid.UUID]bool{}

	now := time.Now()
	if w.alerts.Now != nil {
		now = w.alerts.Now()
	}

	ids, err := w.alerts.Queue.PopDue(ctx, now, w.cfg.BatchSize)
	if err != nil {
		log.Printf("[ALERT] pop due: %v", err)
	}
	fallback, err := w.alerts.DueFromDB(ctx, w.cfg.Grace, w.cfg.BatchSize)
	if err != nil {
		log.Printf("[ALERT] db sweep: %v", err)
	}
	ids = append(ids, fallback...)

	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if ctx.Err() != nil {
			break
		}

		status, err := w.alerts.DeliverAlert(ctx, id)
		if err != nil {
			stats.Errors++
			log.Printf("[ALERT] deliver %s: %v", id, err)
			helper.Report(err, map[string]interface{}{"alert_id": id.String()})
			continue
		}
		switch status {
		case model.AlertSent:
			stats.Sent++
		case model.AlertCancelled:
			stats.Cancelled++
		case model.AlertFailed:
			stats.Failed++
		}
	}

	if stats.Sent+stats.Cancelled+stats.Failed+stats.Errors > 0 {
		log.Printf("[ALERT] tick sent=%d cancelled=%d failed=%d errors=%d",
			stats.Sent, stats.Cancelled, stats.Failed, stats.Errors)
	}
	return stats
}
