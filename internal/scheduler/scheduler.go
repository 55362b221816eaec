// Package scheduler runs the periodic trial-expiry sweep. Reconcile-on-login
// stays the authoritative trigger; the sweep only keeps dormant accounts from
// sitting in free_trial forever. It makes no gateway calls.
package scheduler

import (
	"context"
	"log"

	"github.com/facelens/backend/internal/service"
	"github.com/robfig/cron/v3"
)

// Scheduler owns the cron instance.
type Scheduler struct {
	cron        *cron.Cron
	memberships *service.MembershipService
}

// New creates a Scheduler for the membership service.
func New(memberships *service.MembershipService) *Scheduler {
	return &Scheduler{
		cron:        cron.New(),
		memberships: memberships,
	}
}

// Start registers the sweep at the given cron schedule (e.g. "@daily") and
// starts the cron loop.
func (s *Scheduler) Start(schedule string) error {
	_, err := s.cron.AddFunc(schedule, func() {
		if err := s.memberships.ExpireTrials(context.Background()); err != nil {
			log.Printf("trial sweep failed: %v", err)
		}
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	log.Printf("trial sweep scheduled (%s)", schedule)
	return nil
}

// Stop halts the cron loop.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}
