// Package jobs runs the recurring background work: the market price
// refresh and the daily summary email.
package jobs

import (
	"context" // Job-scoped contexts
	"sync"    // Idempotent start guard

	"github.com/robfig/cron/v3"  // Cron scheduler
	"github.com/sirupsen/logrus" // Logging library

	"ganamos/internal/price"   // Price refresh job
	"ganamos/internal/summary" // Daily summary job
)

// Scheduler owns the cron instance. Start is idempotent: the process
// lifecycle decides when it runs, not a package-level flag.
type Scheduler struct {
	cron    *cron.Cron       // Underlying cron scheduler
	price   *price.Service   // Price refresh job
	summary *summary.Service // Daily summary job
	once    sync.Once        // Guards double starts
}

// NewScheduler creates a scheduler running in UTC
func NewScheduler(priceService *price.Service, summaryService *summary.Service) *Scheduler {
	return &Scheduler{
		cron:    cron.New(), // UTC by default
		price:   priceService,
		summary: summaryService,
	}
}

// Start registers and starts all background jobs. Calling it more than
// once is a no-op. Job failures are logged, never retried.
func (s *Scheduler) Start(ctx context.Context) {
	s.once.Do(func() {
		// Refresh the stored market price every 30 minutes
		s.cron.AddFunc("*/30 * * * *", func() {
			if err := s.price.Refresh(ctx); err != nil {
				logrus.WithField("error", err.Error()).Error("Scheduled price refresh failed")
			}
		})

		// Daily summary email at 01:00 UTC
		s.cron.AddFunc("0 1 * * *", func() {
			id, _, err := s.summary.Run(ctx)
			if err != nil {
				logrus.WithField("error", err.Error()).Error("Scheduled daily summary failed")
				return
			}
			logrus.WithField("message_id", id).Info("Scheduled daily summary sent")
		})

		s.cron.Start()
		logrus.Info("Background jobs started")
	})
}

// Stop halts the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	logrus.Info("Background jobs stopped")
}

// Entries exposes the scheduled jobs, used to verify idempotent starts
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}
