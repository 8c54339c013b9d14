package cron

import (
	"context"
	"fmt"
	"time"

	"daily-habits-tracker/internal/domain/entity"
	"daily-habits-tracker/internal/domain/service"
	"daily-habits-tracker/internal/logger"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// NotifyScheduler periodically runs the notifier
type NotifyScheduler struct {
	notifier service.Notifier
	cron     *cron.Cron
	spec     string
	timeout  time.Duration
}

// NewNotifyScheduler creates a scheduler that runs notifier on spec,
// evaluated in loc, with at most timeout per run
func NewNotifyScheduler(notifier service.Notifier, spec string, loc *time.Location, timeout time.Duration) *NotifyScheduler {
	if loc == nil {
		loc = time.Local
	}

	return &NotifyScheduler{
		notifier: notifier,
		cron:     cron.New(cron.WithLocation(loc)),
		spec:     spec,
		timeout:  timeout,
	}
}

// Start starts the scheduler
func (s *NotifyScheduler) Start() error {
	logger.Info("starting notify scheduler", "spec", s.spec)

	_, err := s.cron.AddFunc(s.spec, func() {
		s.RunOnce(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running notification to finish
func (s *NotifyScheduler) Stop() {
	logger.Info("stopping notify scheduler")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("notify scheduler stopped")
}

// RunOnce runs one notification pass and logs its outcome
func (s *NotifyScheduler) RunOnce(ctx context.Context) (entity.NotifyOutcome, error) {
	runID := uuid.New()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	started := time.Now()
	outcome, err := s.notifier.DoTimer(ctx)
	if err != nil {
		logger.Error("habit notification failed", "run_id", runID, "error", err)
		return outcome, err
	}

	logger.Info("habit notification finished", "run_id", runID, "outcome", outcome, "took", time.Since(started))
	return outcome, nil
}
