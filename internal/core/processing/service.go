// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package processing

import (
	"context"
	"log/slog"

	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
	"github.com/taibuivan/yomira-media/internal/platform/validate"
)

// # Service Layer

// Service is the submission entry point for chapter finalization.
type Service struct {
	chapterRepo chapter.ChapterRepository
	queue       *Queue
	logger      *slog.Logger
}

// NewService constructs a new [Service].
func NewService(chapterRepo chapter.ChapterRepository, queue *Queue, logger *slog.Logger) *Service {
	return &Service{
		chapterRepo: chapterRepo,
		queue:       queue,
		logger:      logger,
	}
}

/*
Submit validates a page submission, claims the chapter, and enqueues it.

Description: The claim is a compare-and-swap on the processing state, so two
concurrent submissions for the same chapter resolve to exactly one winner;
the loser gets a Conflict. The finalizer re-validates everything, but
rejecting malformed input here avoids burning a claim on a doomed run.

Parameters:
  - context: context.Context
  - chapterID: int64
  - draftToken: string (Session holding the uploaded pages)
  - pageIDs: []string (Ordered page submission)

Returns:
  - error: ValidationError, NotFound, Conflict, or storage failures
*/
func (service *Service) Submit(context context.Context, chapterID int64, draftToken string, pageIDs []string) error {
	validator := &validate.Validator{}
	validator.
		DraftToken("draft_token", draftToken).
		PageIDList("page_ids", pageIDs, constants.MinChapterPages, constants.MaxChapterPages)
	if validator.HasErrors() {
		return validator.Err()
	}

	if _, err := service.chapterRepo.FindByID(context, chapterID); err != nil {
		return err
	}

	claimed, err := service.chapterRepo.BeginProcessing(context, chapterID, draftToken, pageIDs)
	if err != nil {
		return err
	}
	if !claimed {
		return apperr.Conflict("Chapter is already being finalized")
	}

	if !service.queue.Enqueue(chapterID) {
		// The claim is persisted; resume will pick the row up even though
		// the in-memory queue rejected it.
		service.logger.Warn("finalize_submit_deferred", slog.Int64("chapter_id", chapterID))
	}

	service.logger.Info("finalize_submitted",
		slog.Int64("chapter_id", chapterID),
		slog.Int("pages", len(pageIDs)),
	)
	return nil
}
