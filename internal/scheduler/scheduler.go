// Package scheduler drives the decision loop on a fixed wall-clock cadence,
// independent of the loop's own internal cooldown.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Job is one unit of scheduled work.
type Job interface {
	Tick(ctx context.Context) error
}

// Scheduler wraps a cron runner around the decision loop.
type Scheduler struct {
	cron     *cron.Cron
	interval time.Duration
	job      Job
	logger   *zap.Logger
}

// New creates a scheduler ticking the job every interval.
func New(interval time.Duration, job Job, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{
		cron:     cron.New(),
		interval: interval,
		job:      job,
		logger:   logger,
	}
}

// Run registers the tick job, starts the cron loop and blocks until ctx is
// cancelled. Job errors are logged and never stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, func() {
		if err := s.job.Tick(ctx); err != nil {
			s.logger.Error("scheduled tick failed", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("register tick job: %w", err)
	}

	s.cron.Start()
	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))

	<-ctx.Done()
	stopCtx := s.cron.Stop()
	<-stopCtx.Done()
	s.logger.Info("scheduler stopped")
	return nil
}
