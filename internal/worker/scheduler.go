package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
)

type SchedulerConfig struct {
	Base       string
	Interval   string
	SyncEvery  time.Duration
	SweepEvery time.Duration
	DryRun     bool
}

// Scheduler periodically enqueues the two bulk reconciliation jobs.
type Scheduler struct {
	jobs   domain.JobPublisherPort
	logger *slog.Logger
	cfg    SchedulerConfig
}

func NewScheduler(jobs domain.JobPublisherPort, logger *slog.Logger, cfg SchedulerConfig) *Scheduler {
	return &Scheduler{jobs: jobs, logger: logger, cfg: cfg}
}

func (s *Scheduler) StartAll(ctx context.Context) {
	go s.startBulkSync(ctx)
	go s.startEnrollmentSweep(ctx)
}

func (s *Scheduler) startBulkSync(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SyncEvery)
	defer ticker.Stop()

	s.logger.Info("scheduling bulk sync", "every", s.cfg.SyncEvery.String())

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := domain.Job{Name: domain.JobBulkSync, Base: s.cfg.Base, DryRun: s.cfg.DryRun}
			if err := s.jobs.Enqueue(ctx, job); err != nil {
				s.logger.Error("could not enqueue bulk sync", "error", err)
			}
		}
	}
}

func (s *Scheduler) startEnrollmentSweep(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.SweepEvery)
	defer ticker.Stop()

	s.logger.Info("scheduling enrollment sweep", "every", s.cfg.SweepEvery.String(), "window", s.cfg.Interval)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job := domain.Job{
				Name:     domain.JobEnrollmentSweep,
				Base:     s.cfg.Base,
				Interval: s.cfg.Interval,
				DryRun:   s.cfg.DryRun,
			}
			if err := s.jobs.Enqueue(ctx, job); err != nil {
				s.logger.Error("could not enqueue enrollment sweep", "error", err)
			}
		}
	}
}
