package usecase

import (
	"context"
	"time"

	"driftwatch/internal/domain"
	"driftwatch/internal/ports"
)

// SweepScheduler wires the cron driver with the drift monitor.
type SweepScheduler struct {
	driver   ports.Scheduler
	monitor  *Monitor
	features []domain.Feature
}

// NewSweepScheduler returns a helper to start/stop recurring sweeps.
func NewSweepScheduler(driver ports.Scheduler, monitor *Monitor, features []domain.Feature) *SweepScheduler {
	return &SweepScheduler{driver: driver, monitor: monitor, features: features}
}

// Start registers the sweep with the provided scheduler.
func (s *SweepScheduler) Start(ctx context.Context) error {
	if s.driver == nil || s.monitor == nil {
		return nil
	}

	job := func(time.Time) {
		if _, err := s.monitor.Sweep(ctx, "scheduled", s.features); err != nil {
			s.monitor.warn("scheduled sweep failed", "error", err)
		}
	}

	return s.driver.Start(ctx, job)
}

// Stop gracefully tears down the underlying scheduler.
func (s *SweepScheduler) Stop(ctx context.Context) error {
	if s.driver == nil {
		return nil
	}

	return s.driver.Stop(ctx)
}
