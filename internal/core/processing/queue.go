// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package processing

import (
	"context"
	"log/slog"
	"sync"

	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// # Job Queue

/*
Queue is the bounded, strictly sequential finalize queue.

A single worker goroutine drains the channel, so at most one finalize run is
in flight at any time. A pending set deduplicates enqueues: a chapter already
waiting (or running) is not queued twice.
*/
type Queue struct {
	finalizer   *Finalizer
	chapterRepo chapter.ChapterRepository
	logger      *slog.Logger

	jobs   chan int64
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu      sync.Mutex
	pending map[int64]struct{}
}

// NewQueue constructs a [Queue] with the default capacity.
func NewQueue(finalizer *Finalizer, chapterRepo chapter.ChapterRepository, logger *slog.Logger) *Queue {
	return &Queue{
		finalizer:   finalizer,
		chapterRepo: chapterRepo,
		logger:      logger,
		jobs:        make(chan int64, constants.ProcessingQueueCapacity),
		pending:     make(map[int64]struct{}),
	}
}

// Start launches the worker goroutine. It must be called exactly once.
func (queue *Queue) Start(parent context.Context) {
	workerContext, cancel := context.WithCancel(parent)
	queue.cancel = cancel

	queue.wg.Add(1)
	go queue.worker(workerContext)

	queue.logger.Info("processing_queue_started",
		slog.Int("capacity", constants.ProcessingQueueCapacity),
	)
}

// Stop cancels the worker and waits for an in-flight run to finish its
// current step. Queued jobs are dropped; crash-recovery resume picks their
// persisted rows up on the next start.
func (queue *Queue) Stop() {
	if queue.cancel != nil {
		queue.cancel()
	}
	queue.wg.Wait()
	queue.logger.Info("processing_queue_stopped")
}

/*
Enqueue schedules a chapter for finalization.

Description: Deduplicates against jobs already pending or running. When the
queue is full the enqueue is rejected rather than blocking the caller; the
persisted "processing" row keeps the job recoverable via resume.

Parameters:
  - chapterID: int64

Returns:
  - bool: true if the job was accepted
*/
func (queue *Queue) Enqueue(chapterID int64) bool {
	queue.mu.Lock()
	if _, exists := queue.pending[chapterID]; exists {
		queue.mu.Unlock()
		return true
	}
	queue.pending[chapterID] = struct{}{}
	queue.mu.Unlock()

	select {
	case queue.jobs <- chapterID:
		return true
	default:
		queue.forget(chapterID)
		queue.logger.Warn("processing_queue_full", slog.Int64("chapter_id", chapterID))
		return false
	}
}

/*
ResumeInterrupted re-enqueues chapters persisted in state "processing".

Description: Called once on startup, before HTTP traffic is accepted.
Chapters claimed before a crash re-run from page one; copies are overwrites,
so the replay is idempotent.

Parameters:
  - context: context.Context

Returns:
  - error: Query failure
*/
func (queue *Queue) ResumeInterrupted(context context.Context) error {
	ids, err := queue.chapterRepo.ListProcessing(context, constants.ResumeBatchSize)
	if err != nil {
		return err
	}

	for _, id := range ids {
		queue.Enqueue(id)
	}

	if len(ids) > 0 {
		queue.logger.Info("processing_queue_resumed", slog.Int("count", len(ids)))
	}
	return nil
}

// worker drains the queue one chapter at a time.
func (queue *Queue) worker(workerContext context.Context) {
	defer queue.wg.Done()

	for {
		select {
		case <-workerContext.Done():
			return
		case chapterID := <-queue.jobs:
			if err := queue.finalizer.Run(workerContext, chapterID); err != nil {
				queue.logger.Error("finalize_run_error",
					slog.Int64("chapter_id", chapterID),
					slog.Any("error", err),
				)
			}
			queue.forget(chapterID)
		}
	}
}

// forget drops a chapter from the pending set.
func (queue *Queue) forget(chapterID int64) {
	queue.mu.Lock()
	delete(queue.pending, chapterID)
	queue.mu.Unlock()
}
