// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adminjobs

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// Task is the unit of work a job executes.
type Task func(ctx context.Context) error

// # Runner

// Runner executes admin jobs one at a time, in submission order.
type Runner struct {
	store  JobStore
	logger *slog.Logger

	jobs   chan queuedJob
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type queuedJob struct {
	id   string
	task Task
}

// NewRunner constructs a [Runner] over the given status store.
func NewRunner(store JobStore, logger *slog.Logger) *Runner {
	return &Runner{
		store:  store,
		logger: logger,
		jobs:   make(chan queuedJob, constants.AdminJobQueueCapacity),
	}
}

// Start launches the worker goroutine. It must be called exactly once.
func (runner *Runner) Start(parent context.Context) {
	workerContext, cancel := context.WithCancel(parent)
	runner.cancel = cancel

	runner.wg.Add(1)
	go runner.worker(workerContext)

	runner.logger.Info("admin_job_runner_started",
		slog.Int("capacity", constants.AdminJobQueueCapacity),
	)
}

// Stop cancels the worker and waits for the in-flight job to finish.
// Queued-but-unstarted jobs remain in state "queued" and are not executed.
func (runner *Runner) Stop() {
	if runner.cancel != nil {
		runner.cancel()
	}
	runner.wg.Wait()
	runner.logger.Info("admin_job_runner_stopped")
}

/*
Submit registers a new job and schedules its task.

Parameters:
  - context: context.Context
  - kind: string (Job kind, e.g. "delete_manga")
  - targetID: int64 (Entity the job operates on)
  - task: Task (Executed by the worker)

Returns:
  - *Job: The queued status record, for polling
  - error: RateLimited when the queue is full, or storage failures
*/
func (runner *Runner) Submit(context context.Context, kind string, targetID int64, task Task) (*Job, error) {
	job := &Job{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Kind:      kind,
		TargetID:  targetID,
		State:     StateQueued,
		CreatedAt: time.Now(),
	}

	if err := runner.store.Save(context, job); err != nil {
		return nil, err
	}

	select {
	case runner.jobs <- queuedJob{id: job.ID, task: task}:
	default:
		return nil, apperr.RateLimited(constants.AdminJobRetryAfterSeconds)
	}

	runner.logger.Info("admin_job_submitted",
		slog.String("job_id", job.ID),
		slog.String("kind", kind),
		slog.Int64("target_id", targetID),
	)
	return job, nil
}

// Find returns the status record of a job.
func (runner *Runner) Find(context context.Context, id string) (*Job, error) {
	return runner.store.Find(context, id)
}

// worker drains the queue one job at a time.
func (runner *Runner) worker(workerContext context.Context) {
	defer runner.wg.Done()

	for {
		select {
		case <-workerContext.Done():
			return
		case queued := <-runner.jobs:
			runner.execute(workerContext, queued)
		}
	}
}

// execute runs one job, transitioning queued -> running -> done/failed.
func (runner *Runner) execute(workerContext context.Context, queued queuedJob) {
	job, err := runner.store.Find(workerContext, queued.id)
	if err != nil {
		runner.logger.Error("admin_job_lost", slog.String("job_id", queued.id), slog.Any("error", err))
		return
	}

	now := time.Now()
	job.State = StateRunning
	job.StartedAt = &now
	runner.save(workerContext, job)

	taskErr := queued.task(workerContext)

	finished := time.Now()
	job.FinishedAt = &finished
	if taskErr != nil {
		job.State = StateFailed
		job.Error = SanitizeError(taskErr)
		runner.logger.Error("admin_job_failed",
			slog.String("job_id", job.ID),
			slog.String("kind", job.Kind),
			slog.Any("error", taskErr),
		)
	} else {
		job.State = StateDone
		runner.logger.Info("admin_job_finished",
			slog.String("job_id", job.ID),
			slog.String("kind", job.Kind),
			slog.Duration("took", finished.Sub(now)),
		)
	}
	runner.save(workerContext, job)
}

// save persists a status transition; a failed save is logged, not fatal.
func (runner *Runner) save(workerContext context.Context, job *Job) {
	if err := runner.store.Save(workerContext, job); err != nil {
		runner.logger.Error("admin_job_save_failed",
			slog.String("job_id", job.ID),
			slog.Any("error", err),
		)
	}
}
