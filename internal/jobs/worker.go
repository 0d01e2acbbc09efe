package jobs

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/tablemate/backoffice-backend/internal/logger"
	"github.com/tablemate/backoffice-backend/internal/repos"
)

type Worker struct {
	db           *gorm.DB
	log          *logger.Logger
	repo         repos.JobRunRepo
	registry     *Registry
	pollInterval time.Duration
}

func NewWorker(db *gorm.DB, baseLog *logger.Logger, repo repos.JobRunRepo, registry *Registry, pollInterval time.Duration) *Worker {
	if pollInterval <= 0 {
		pollInterval = time.Second
	}
	return &Worker{
		db:           db,
		log:          baseLog.With("component", "JobWorker"),
		repo:         repo,
		registry:     registry,
		pollInterval: pollInterval,
	}
}

// Start polls for runnable jobs until ctx is canceled. Claiming uses
// FOR UPDATE SKIP LOCKED, so multiple workers can share one queue.
func (w *Worker) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(w.pollInterval)
		defer ticker.Stop()
		const maxAttempts = 5
		retryDelay := 30 * time.Second
		staleRunning := 2 * time.Minute
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				job, err := w.repo.ClaimNextRunnable(ctx, w.db, maxAttempts, retryDelay, staleRunning)
				if err != nil {
					w.log.Warn("ClaimNextRunnable failed", "error", err)
					continue
				}
				if job == nil {
					continue
				}
				jc := NewContext(ctx, w.db, job, w.repo)
				h, ok := w.registry.Get(job.JobType)
				if !ok {
					w.log.Warn("No handler registered for job_type", "job_type", job.JobType, "job_id", job.ID)
					jc.Fail("dispatch", fmt.Errorf("no handler registered for job_type=%s", job.JobType))
					continue
				}
				// A panicking handler must not take the worker loop down.
				func() {
					defer func() {
						if r := recover(); r != nil {
							w.log.Error("Job handler panic", "job_id", job.ID, "job_type", job.JobType, "panic", r)
							jc.Fail("panic", fmt.Errorf("panic: %v", r))
						}
					}()
					if err := h.Run(jc); err != nil {
						w.log.Warn("Job handler failed", "job_id", job.ID, "job_type", job.JobType, "error", err)
						jc.Fail(jc.Job.Stage, err)
					}
				}()
			}
		}
	}()
}
