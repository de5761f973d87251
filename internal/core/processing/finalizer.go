// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package processing implements chapter finalization: the pipeline that moves
page images from a temporary draft prefix into permanent, canonically
numbered storage keys.

Components:

  - Finalizer: the single-chapter algorithm (copy, publish, clean up).
  - Queue: the strictly sequential worker that runs the Finalizer.
  - Service: the submission entry point with compare-and-swap claiming.

Failure semantics: a finalize run never throws at its caller. Every abort is
recorded on the chapter row as processing state "failed" with a short,
sanitized message; a fresh draft submission is required to retry. Copies are
plain overwrites, so a retry that recopies all pages is idempotent.
*/
package processing

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
	"github.com/taibuivan/yomira-media/internal/storage"
	"github.com/taibuivan/yomira-media/pkg/hexid"
)

// Sanitized failure messages. Raw storage errors are logged server-side but
// never persisted on the chapter row.
const (
	msgInvalidToken  = "invalid draft token"
	msgInvalidPages  = "invalid page submission"
	msgDraftNotFound = "draft not found or expired"
	msgStorageFailed = "storage failure while finalizing chapter"
)

// ObjectStore is the slice of the storage adapter the finalizer needs.
type ObjectStore interface {
	ListByPrefix(ctx context.Context, prefix string) ([]storage.ObjectInfo, error)
	Copy(ctx context.Context, srcKey, dstKey string) error
	DeleteVersions(ctx context.Context, versions []storage.ObjectVersion) error
	PurgePrefix(ctx context.Context, prefix string) error
}

// # Finalizer

// Finalizer runs the finalization algorithm for one chapter at a time.
type Finalizer struct {
	chapterRepo chapter.ChapterRepository
	drafts      *draft.Service
	store       ObjectStore
	layout      storage.Layout
	logger      *slog.Logger
}

// NewFinalizer constructs a [Finalizer] with its required collaborators.
func NewFinalizer(chapterRepo chapter.ChapterRepository, drafts *draft.Service, store ObjectStore, layout storage.Layout, logger *slog.Logger) *Finalizer {
	return &Finalizer{
		chapterRepo: chapterRepo,
		drafts:      drafts,
		store:       store,
		layout:      layout,
		logger:      logger,
	}
}

/*
Run finalizes a single chapter whose row is in state "processing".

Description: Resolves the draft, copies each submitted page into its
canonical numbered key, atomically publishes the page fields, and cleans up
leftover and draft objects. Preconditions are re-checked here because rows
can arrive via crash-recovery resume without passing through [Service.Submit].

Parameters:
  - context: context.Context
  - chapterID: int64

Returns:
  - error: Only infrastructure failures the queue should log; business
    failures are recorded on the chapter row instead
*/
func (finalizer *Finalizer) Run(context context.Context, chapterID int64) error {
	log := finalizer.logger.With(slog.Int64("chapter_id", chapterID))

	row, err := finalizer.chapterRepo.FindByID(context, chapterID)
	if err != nil {
		if apperr.IsAppError(err) {
			// Row deleted while queued: nothing to do.
			log.Info("finalize_skipped_chapter_gone")
			return nil
		}
		return err
	}

	// Only rows claimed via BeginProcessing (or persisted as "processing"
	// before a crash) are eligible. Anything else is a stale enqueue.
	if !row.IsProcessing() {
		log.Info("finalize_skipped_not_processing")
		return nil
	}

	// # Preconditions (no storage I/O before these pass)

	if row.ProcessingDraftToken == nil || !hexid.IsToken(*row.ProcessingDraftToken) {
		return finalizer.fail(context, log, chapterID, msgInvalidToken, nil)
	}
	if reason := validatePageIDs(row.ProcessingPages); reason != "" {
		return finalizer.fail(context, log, chapterID, reason, nil)
	}

	session, err := finalizer.drafts.Get(context, *row.ProcessingDraftToken)
	if err != nil {
		// Only an AppError means the draft is actually gone. Anything else
		// is an infrastructure fault and must not read as an expired draft.
		message := msgDraftNotFound
		if !apperr.IsAppError(err) {
			message = msgStorageFailed
		}
		return finalizer.fail(context, log, chapterID, message, err)
	}
	if session.MangaID != row.MangaID {
		return finalizer.fail(context, log, chapterID, msgDraftNotFound, nil)
	}

	log.Info("finalize_started",
		slog.String("draft_token", session.Token),
		slog.Int("pages", len(row.ProcessingPages)),
	)

	// # Source Resolution

	draftSources, err := finalizer.mapDraftObjects(context, session.PagesPrefix)
	if err != nil {
		return finalizer.fail(context, log, chapterID, msgStorageFailed, err)
	}

	fallbackSources, err := finalizer.mapExistingPages(context, row)
	if err != nil {
		return finalizer.fail(context, log, chapterID, msgStorageFailed, err)
	}

	// # Ordered Copy Loop

	destinationPrefix := finalizer.layout.ChapterPrefix(row.MangaID, row.Number)
	total := len(row.ProcessingPages)

	for index, pageID := range row.ProcessingPages {
		sourceKey, found := draftSources[finalizer.layout.DraftPageKey(session.PagesPrefix, pageID)]
		if !found {
			sourceKey, found = fallbackSources[pageID]
		}
		if !found {
			message := fmt.Sprintf("missing image for page %d (possibly expired draft)", index+1)
			return finalizer.fail(context, log, chapterID, message, nil)
		}

		destinationKey := finalizer.layout.PageKey(destinationPrefix, index+1, total)
		if err := finalizer.store.Copy(context, sourceKey, destinationKey); err != nil {
			return finalizer.fail(context, log, chapterID, msgStorageFailed, err)
		}

		// Checkpoint: observe external stops and signal liveness. Objects
		// copied so far are left in place either way.
		if (index+1)%constants.FinalizeCheckpointInterval == 0 && index+1 < total {
			stopped, err := finalizer.checkpoint(context, log, chapterID, session.Token)
			if err != nil {
				return err
			}
			if stopped {
				log.Info("finalize_stopped_externally", slog.Int("copied", index+1))
				return nil
			}
		}
	}

	// # Atomic Publish

	previousPrefix := ""
	if row.PagesPrefix != nil {
		previousPrefix = *row.PagesPrefix
	}

	if err := finalizer.chapterRepo.CommitPages(context, chapterID, total, destinationPrefix, constants.PagesExt); err != nil {
		return finalizer.fail(context, log, chapterID, msgStorageFailed, err)
	}

	// # Post-Publish Cleanup. The chapter is already live; failures here
	// are logged and left to the sweep, never surfaced as a finalize error.

	finalizer.trimLeftoverPages(context, log, destinationPrefix, total)

	if previousPrefix != "" && previousPrefix != destinationPrefix {
		if err := finalizer.store.PurgePrefix(context, previousPrefix); err != nil {
			log.Warn("finalize_old_prefix_purge_failed",
				slog.String("prefix", previousPrefix),
				slog.Any("error", err),
			)
		}
	}

	if err := finalizer.drafts.Destroy(context, session); err != nil {
		log.Warn("finalize_draft_destroy_failed",
			slog.String("draft_token", session.Token),
			slog.Any("error", err),
		)
	}

	log.Info("finalize_finished",
		slog.Int("pages", total),
		slog.String("pages_prefix", destinationPrefix),
	)
	return nil
}

// # Internals

// mapDraftObjects lists the draft prefix into a lookup by full key.
func (finalizer *Finalizer) mapDraftObjects(context context.Context, prefix string) (map[string]string, error) {
	objects, err := finalizer.store.ListByPrefix(context, prefix)
	if err != nil {
		return nil, err
	}

	sources := make(map[string]string, len(objects))
	for _, object := range objects {
		sources[object.Key] = object.Key
	}
	return sources, nil
}

// mapExistingPages builds the fallback map from deterministic page ids to
// the already-published objects of the chapter's previous version. Ties on
// the same page number resolve to the most recently modified object.
func (finalizer *Finalizer) mapExistingPages(context context.Context, row *chapter.Chapter) (map[string]string, error) {
	if row.PagesPrefix == nil || *row.PagesPrefix == "" {
		return map[string]string{}, nil
	}

	objects, err := finalizer.store.ListByPrefix(context, *row.PagesPrefix)
	if err != nil {
		return nil, err
	}

	newest := make(map[int]storage.ObjectInfo)
	for _, object := range objects {
		pageNumber, ok := storage.ParsePageNumber(object.Key)
		if !ok {
			continue
		}
		if current, exists := newest[pageNumber]; !exists || object.LastModified.After(current.LastModified) {
			newest[pageNumber] = object
		}
	}

	sources := make(map[string]string, len(newest))
	for pageNumber, object := range newest {
		sources[hexid.PageIDForChapterPage(row.ID, pageNumber)] = object.Key
	}
	return sources, nil
}

// checkpoint re-reads the processing state and refreshes keep-alives.
// It reports stopped=true when the run should end silently.
func (finalizer *Finalizer) checkpoint(context context.Context, log *slog.Logger, chapterID int64, token string) (bool, error) {
	state, err := finalizer.chapterRepo.ReadProcessingState(context, chapterID)
	if err != nil {
		if apperr.IsAppError(err) {
			// Chapter deleted mid-run: stop, leave copied objects as-is.
			return true, nil
		}
		return false, err
	}
	if state == nil || *state != chapter.StateProcessing {
		return true, nil
	}

	if err := finalizer.drafts.Touch(context, token); err != nil {
		log.Warn("finalize_draft_keepalive_failed", slog.Any("error", err))
	}
	if err := finalizer.chapterRepo.TouchProcessing(context, chapterID); err != nil {
		log.Warn("finalize_chapter_keepalive_failed", slog.Any("error", err))
	}

	return false, nil
}

// trimLeftoverPages deletes destination objects numbered beyond the new
// page count, handling a re-finalize with fewer pages than before.
func (finalizer *Finalizer) trimLeftoverPages(context context.Context, log *slog.Logger, destinationPrefix string, total int) {
	objects, err := finalizer.store.ListByPrefix(context, destinationPrefix)
	if err != nil {
		log.Warn("finalize_trim_list_failed", slog.Any("error", err))
		return
	}

	var leftovers []storage.ObjectVersion
	for _, object := range objects {
		pageNumber, ok := storage.ParsePageNumber(object.Key)
		if ok && pageNumber > total {
			leftovers = append(leftovers, storage.ObjectVersion{Key: object.Key})
		}
	}
	if len(leftovers) == 0 {
		return
	}

	if err := finalizer.store.DeleteVersions(context, leftovers); err != nil {
		log.Warn("finalize_trim_delete_failed", slog.Any("error", err))
		return
	}
	log.Info("finalize_trimmed_leftover_pages", slog.Int("count", len(leftovers)))
}

// fail marks the chapter failed with a short message. The underlying cause,
// if any, stays in the server log.
func (finalizer *Finalizer) fail(context context.Context, log *slog.Logger, chapterID int64, message string, cause error) error {
	log.Warn("finalize_failed",
		slog.String("reason", message),
		slog.Any("cause", cause),
	)

	if err := finalizer.chapterRepo.MarkFailed(context, chapterID, message); err != nil {
		return fmt.Errorf("processing: failed to record failure: %w", err)
	}
	return nil
}

// validatePageIDs checks the ordered submission: bounded count, well-formed
// entries, no duplicates. Returns an empty string when valid.
func validatePageIDs(pageIDs []string) string {
	if len(pageIDs) < constants.MinChapterPages || len(pageIDs) > constants.MaxChapterPages {
		return msgInvalidPages
	}

	seen := make(map[string]bool, len(pageIDs))
	for _, id := range pageIDs {
		if !hexid.IsPageID(id) || seen[id] {
			return msgInvalidPages
		}
		seen[id] = true
	}
	return ""
}
