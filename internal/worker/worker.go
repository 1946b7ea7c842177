package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/medunigraz/mfa-sync-service/internal/domain"
	"github.com/medunigraz/mfa-sync-service/internal/infrastructure/metrics"
)

// TaskRunner is the engine surface the worker dispatches jobs to.
type TaskRunner interface {
	BulkSync(ctx context.Context, base string, mode domain.ExecutionMode, dryRun bool) error
	EnrollmentSweep(ctx context.Context, base, interval string, dryRun bool) error
	Lock(ctx context.Context, recordID string, dryRun bool) error
	Unlock(ctx context.Context, recordID string, dryRun bool) error
	Activate(ctx context.Context, username string, attempt int) error
}

type Config struct {
	// Defaults applied when a job does not carry its own scope.
	Base     string
	Interval string
	DryRun   bool
}

// maxInlineDelay bounds how long the consumer waits on a not-yet-due
// job. Anything further out goes back to the queue so one user's
// retry countdown never stalls everyone else's jobs.
const maxInlineDelay = time.Second

// Worker consumes queue jobs and runs them through the engine. Jobs
// for the same user arrive on the same partition and serialize here.
type Worker struct {
	jobs      domain.JobSubscriberPort
	publisher domain.JobPublisherPort
	tasks     TaskRunner
	metrics   *metrics.SyncMetrics
	logger    *slog.Logger
	cfg       Config
}

func NewWorker(jobs domain.JobSubscriberPort, publisher domain.JobPublisherPort, tasks TaskRunner, syncMetrics *metrics.SyncMetrics, logger *slog.Logger, cfg Config) *Worker {
	return &Worker{
		jobs:      jobs,
		publisher: publisher,
		tasks:     tasks,
		metrics:   syncMetrics,
		logger:    logger,
		cfg:       cfg,
	}
}

func (w *Worker) Run(ctx context.Context) error {
	jobs, err := w.jobs.Subscribe(ctx)
	if err != nil {
		return err
	}

	w.logger.Info("job worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case job, ok := <-jobs:
			if !ok {
				w.logger.Info("job channel closed, worker stopping")
				return nil
			}
			w.handle(ctx, job)
		}
	}
}

func (w *Worker) handle(ctx context.Context, job domain.Job) {
	if wait := time.Until(job.NotBefore); wait > maxInlineDelay {
		if err := w.publisher.Enqueue(ctx, job); err != nil {
			w.logger.Error("could not defer job", "job", job.Name, "id", job.ID, "error", err)
		}
		w.metrics.JobsConsumedTotal.WithLabelValues(job.Name, "deferred").Inc()
		return
	} else if wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return
		}
	}

	base := job.Base
	if base == "" {
		base = w.cfg.Base
	}
	interval := job.Interval
	if interval == "" {
		interval = w.cfg.Interval
	}
	dryRun := job.DryRun || w.cfg.DryRun

	var err error
	switch job.Name {
	case domain.JobBulkSync:
		err = w.tasks.BulkSync(ctx, base, domain.RunQueued, dryRun)
	case domain.JobEnrollmentSweep:
		err = w.tasks.EnrollmentSweep(ctx, base, interval, dryRun)
	case domain.JobLock:
		err = w.tasks.Lock(ctx, job.RecordID, dryRun)
	case domain.JobUnlock:
		err = w.tasks.Unlock(ctx, job.RecordID, dryRun)
	case domain.JobActivate:
		err = w.tasks.Activate(ctx, job.Username, job.Attempt)
	default:
		w.logger.Warn("skipping unknown job", "job", job.Name, "id", job.ID)
		return
	}

	result := "success"
	if err != nil {
		result = "failure"
		w.logger.Error("job failed", "job", job.Name, "id", job.ID, "error", err)
	}
	w.metrics.JobsConsumedTotal.WithLabelValues(job.Name, result).Inc()
}
