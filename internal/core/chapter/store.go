// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import "context"

// # Chapter Data Access

// ChapterRepository defines the data access contract for the media pipeline's
// view of chapters.
type ChapterRepository interface {

	/*
		FindByID returns the chapter with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Chapter: Hydrated row
		  - error: NotFound if missing
	*/
	FindByID(context context.Context, id int64) (*Chapter, error)

	/*
		BeginProcessing atomically claims a chapter for finalization.

		Description: Compare-and-swap on processingstate: the update only
		applies when the row is not already in state "processing". This
		closes the double-enqueue race between crash-recovery resume and a
		concurrently submitted job.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - draftToken: string (Session to finalize from)
		  - pageIDs: []string (Ordered page submission)

		Returns:
		  - bool: true if this caller won the claim
		  - error: Storage failure
	*/
	BeginProcessing(context context.Context, id int64, draftToken string, pageIDs []string) (bool, error)

	/*
		ReadProcessingState re-reads just the processing state of a row.
		Used at finalize checkpoints to observe external stops.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *string: Current state (nil when idle)
		  - error: NotFound if the row vanished
	*/
	ReadProcessingState(context context.Context, id int64) (*string, error)

	/*
		TouchProcessing bumps processingupdatedat as a liveness signal.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: Update failure
	*/
	TouchProcessing(context context.Context, id int64) error

	/*
		MarkFailed records an aborted finalize run.

		Description: Sets state "failed" with a short, sanitized message.
		The draft token and page submission are kept for diagnostics.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - message: string (Client-visible reason)

		Returns:
		  - error: Update failure
	*/
	MarkFailed(context context.Context, id int64, message string) error

	/*
		CommitPages atomically publishes a finalized chapter.

		Description: Sets pages/pagesprefix/pagesext/pagesupdatedat and the
		publication date in one statement and clears every processing_*
		column. This is the only mutation path for the published fields.

		Parameters:
		  - context: context.Context
		  - id: int64
		  - pages: int (Page count)
		  - prefix: string (Canonical destination prefix)
		  - ext: string (Image extension)

		Returns:
		  - error: Update failure
	*/
	CommitPages(context context.Context, id int64, pages int, prefix, ext string) error

	/*
		ListProcessing returns ids of chapters persisted in state
		"processing", oldest first. Used by crash-recovery resume.

		Parameters:
		  - context: context.Context
		  - limit: int (Batch bound)

		Returns:
		  - []int64: Chapter ids to re-enqueue
		  - error: Query failure
	*/
	ListProcessing(context context.Context, limit int) ([]int64, error)

	/*
		ListByManga returns all chapters of a manga with their storage
		prefixes and processing tokens. Used by cascade deletion.

		Parameters:
		  - context: context.Context
		  - mangaID: int64

		Returns:
		  - []*Chapter: All chapter rows of the manga
		  - error: Query failure
	*/
	ListByManga(context context.Context, mangaID int64) ([]*Chapter, error)

	/*
		Delete removes a chapter row.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: Removal failure
	*/
	Delete(context context.Context, id int64) error
}
