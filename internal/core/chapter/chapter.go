// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package chapter defines the chapter rows the media pipeline operates on and
their persistence contract.

A chapter is in exactly one of three processing states at any time:

  - idle: ProcessingState is nil; published page fields are authoritative.
  - processing: a finalize run owns the row; processing_* fields are set.
  - failed: the last finalize run aborted; ProcessingError explains why.

The published page fields (Pages, PagesPrefix, PagesExt) are only ever
mutated together, atomically, when a finalize run commits.
*/
package chapter

import "time"

// Processing states persisted in core.chapter.
const (
	// StateProcessing marks a row owned by an in-flight finalize run.
	StateProcessing = "processing"

	// StateFailed marks a row whose last finalize run aborted.
	StateFailed = "failed"
)

// Chapter carries the fields of core.chapter relevant to the media pipeline.
type Chapter struct {
	ID      int64   `json:"id"`
	MangaID int64   `json:"manga_id"`
	Number  float64 `json:"number"`

	// Published page fields; mutated only together on a successful finalize.
	Pages          int        `json:"pages"`
	PagesPrefix    *string    `json:"pages_prefix"`
	PagesExt       *string    `json:"pages_ext"`
	PagesUpdatedAt *time.Time `json:"pages_updated_at"`

	// Processing fields; owned by the finalize pipeline.
	ProcessingState      *string    `json:"processing_state"`
	ProcessingError      *string    `json:"processing_error"`
	ProcessingDraftToken *string    `json:"processing_draft_token"`
	ProcessingPages      []string   `json:"processing_pages"`
	ProcessingUpdatedAt  *time.Time `json:"processing_updated_at"`

	PublishedAt *time.Time `json:"published_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsProcessing reports whether a finalize run currently owns this row.
func (c *Chapter) IsProcessing() bool {
	return c.ProcessingState != nil && *c.ProcessingState == StateProcessing
}
