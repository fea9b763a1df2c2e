// Package jobs runs the scheduled background work: expiring stale
// purchase requests and marking missed installments overdue.
package jobs

import (
	"context"
	"log"

	"taqsit/internal/config"
	"taqsit/internal/services/plan"
	"taqsit/internal/services/purchase"

	"github.com/robfig/cron/v3"
)

// Sweeper schedules the lifecycle sweeps. Both sweeps are status
// guarded batch updates, so overlapping runs are harmless.
type Sweeper struct {
	cron            *cron.Cron
	purchaseService purchase.Service
	planService     plan.Service
}

// NewSweeper creates a sweeper over the given services.
func NewSweeper(purchaseService purchase.Service, planService plan.Service) *Sweeper {
	return &Sweeper{
		cron:            cron.New(),
		purchaseService: purchaseService,
		planService:     planService,
	}
}

// Start registers the sweep schedules and starts the scheduler. The
// expiry sweep runs often because a request's approvability window is
// measured in hours; the overdue sweep follows day-granularity due
// dates and runs once a day.
func (s *Sweeper) Start() error {
	expirySpec := config.GetEnv("EXPIRY_SWEEP_SCHEDULE", "*/10 * * * *")
	overdueSpec := config.GetEnv("OVERDUE_SWEEP_SCHEDULE", "15 0 * * *")

	if _, err := s.cron.AddFunc(expirySpec, s.runExpirySweep); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(overdueSpec, s.runOverdueSweep); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("sweeper started: expiry=%q overdue=%q", expirySpec, overdueSpec)
	return nil
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Sweeper) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("sweeper stopped")
}

func (s *Sweeper) runExpirySweep() {
	count, err := s.purchaseService.SweepExpired(context.Background())
	if err != nil {
		log.Printf("expiry sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("expiry sweep: %d requests expired", count)
	}
}

func (s *Sweeper) runOverdueSweep() {
	count, err := s.planService.SweepOverdue(context.Background())
	if err != nil {
		log.Printf("overdue sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("overdue sweep: %d installments marked", count)
	}
}
