// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package cleanup removes expired upload sessions and their stored objects.

A draft is expired once its keep-alive timestamp is older than the TTL,
unless a chapter in state "processing" still references its token. Each
sweep handles a bounded batch; stragglers are picked up by later sweeps.
*/
package cleanup

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// # Sweeper

// Sweeper periodically destroys expired drafts.
type Sweeper struct {
	draftRepo draft.DraftRepository
	drafts    *draft.Service
	logger    *slog.Logger

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewSweeper constructs a [Sweeper].
func NewSweeper(draftRepo draft.DraftRepository, drafts *draft.Service, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		draftRepo: draftRepo,
		drafts:    drafts,
		logger:    logger,
	}
}

// Start launches the periodic sweep loop. One sweep runs immediately so a
// freshly restarted instance does not wait a full interval.
func (sweeper *Sweeper) Start(parent context.Context) {
	loopContext, cancel := context.WithCancel(parent)
	sweeper.cancel = cancel

	sweeper.wg.Add(1)
	go func() {
		defer sweeper.wg.Done()

		sweeper.Sweep(loopContext)

		ticker := time.NewTicker(constants.CleanupInterval)
		defer ticker.Stop()

		for {
			select {
			case <-loopContext.Done():
				return
			case <-ticker.C:
				sweeper.Sweep(loopContext)
			}
		}
	}()

	sweeper.logger.Info("cleanup_sweeper_started",
		slog.Duration("interval", constants.CleanupInterval),
	)
}

// Stop cancels the loop and waits for an in-flight sweep to finish.
func (sweeper *Sweeper) Stop() {
	if sweeper.cancel != nil {
		sweeper.cancel()
	}
	sweeper.wg.Wait()
	sweeper.logger.Info("cleanup_sweeper_stopped")
}

/*
Sweep destroys one batch of expired drafts.

Description: Each draft's storage prefix is purged before its row is
deleted. A failed purge leaves the draft in place with a refreshed
keep-alive, so the next sweep retries it. Failures never abort the batch.

Parameters:
  - context: context.Context

Returns:
  - int: Number of drafts destroyed
*/
func (sweeper *Sweeper) Sweep(context context.Context) int {
	expired, err := sweeper.draftRepo.ListExpired(context, constants.DraftTTL, constants.CleanupBatchSize)
	if err != nil {
		sweeper.logger.Error("cleanup_list_failed", slog.Any("error", err))
		return 0
	}
	if len(expired) == 0 {
		return 0
	}

	destroyed := 0
	for _, session := range expired {
		if context.Err() != nil {
			break
		}

		if err := sweeper.drafts.Destroy(context, session); err != nil {
			sweeper.logger.Warn("cleanup_draft_destroy_failed",
				slog.String("token", session.Token),
				slog.Any("error", err),
			)
			continue
		}
		destroyed++
	}

	sweeper.logger.Info("cleanup_swept",
		slog.Int("expired", len(expired)),
		slog.Int("destroyed", destroyed),
	)
	return destroyed
}
