// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package chapter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/database/schema"
	"github.com/taibuivan/yomira-media/internal/platform/dberr"
)

// # PostgreSQL Repository

// chapterRepository implements the [ChapterRepository] interface using pgx.
type chapterRepository struct {
	pool *pgxpool.Pool
}

// NewChapterRepository constructs a PostgreSQL backed chapter store.
func NewChapterRepository(pool *pgxpool.Pool) ChapterRepository {
	return &chapterRepository{pool: pool}
}

// chapterColumns is the SELECT column list shared by the hydrating queries.
func chapterColumns() string {
	t := schema.CoreChapter
	return fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
		t.ID, t.MangaID, t.Number, t.Pages, t.PagesPrefix, t.PagesExt, t.PagesUpdatedAt,
		t.ProcessingState, t.ProcessingError, t.ProcessingDraftToken, t.ProcessingPages,
		t.ProcessingUpdatedAt, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	)
}

/*
FindByID returns the chapter with the given ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Chapter: Hydrated row
  - error: NotFound if missing
*/
func (repository *chapterRepository) FindByID(context context.Context, id int64) (*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		chapterColumns(),
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
	)

	chapter, err := scanChapter(repository.pool.QueryRow(context, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Chapter")
		}
		return nil, fmt.Errorf("postgres: failed to find chapter: %w", err)
	}

	return chapter, nil
}

/*
BeginProcessing atomically claims a chapter for finalization via
compare-and-swap on the processing state.

Parameters:
  - context: context.Context
  - id: int64
  - draftToken: string
  - pageIDs: []string

Returns:
  - bool: true if the claim succeeded
  - error: Storage failure
*/
func (repository *chapterRepository) BeginProcessing(context context.Context, id int64, draftToken string, pageIDs []string) (bool, error) {
	t := schema.CoreChapter

	pagesJSON, err := json.Marshal(pageIDs)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to encode page ids: %w", err)
	}

	// The WHERE clause is the lock: only a row not already claimed by a
	// running finalize can transition into "processing".
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = 'processing',
		    %s = NULL,
		    %s = $2,
		    %s = $3,
		    %s = now(),
		    %s = now()
		WHERE %s = $1 AND %s IS DISTINCT FROM 'processing'
	`,
		t.Table,
		t.ProcessingState,
		t.ProcessingError,
		t.ProcessingDraftToken,
		t.ProcessingPages,
		t.ProcessingUpdatedAt,
		t.UpdatedAt,
		t.ID,
		t.ProcessingState,
	)

	tag, err := repository.pool.Exec(context, query, id, draftToken, pagesJSON)
	if err != nil {
		return false, fmt.Errorf("postgres: failed to begin processing: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

/*
ReadProcessingState re-reads just the processing state column.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *string: Current state (nil when idle)
  - error: NotFound if the row vanished
*/
func (repository *chapterRepository) ReadProcessingState(context context.Context, id int64) (*string, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1`,
		schema.CoreChapter.ProcessingState,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
	)

	var state *string
	err := repository.pool.QueryRow(context, query, id).Scan(&state)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Chapter")
		}
		return nil, fmt.Errorf("postgres: failed to read processing state: %w", err)
	}

	return state, nil
}

/*
TouchProcessing bumps processingupdatedat as a liveness signal.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: Update failure
*/
func (repository *chapterRepository) TouchProcessing(context context.Context, id int64) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = now() WHERE %s = $1`,
		schema.CoreChapter.Table,
		schema.CoreChapter.ProcessingUpdatedAt,
		schema.CoreChapter.ID,
	)

	_, err := repository.pool.Exec(context, query, id)
	return dberr.Wrap(err, "touch_processing")
}

/*
MarkFailed records an aborted finalize run with a client-visible reason.

Parameters:
  - context: context.Context
  - id: int64
  - message: string

Returns:
  - error: Update failure
*/
func (repository *chapterRepository) MarkFailed(context context.Context, id int64, message string) error {
	t := schema.CoreChapter
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = 'failed', %s = $2, %s = now(), %s = now()
		WHERE %s = $1
	`,
		t.Table,
		t.ProcessingState,
		t.ProcessingError,
		t.ProcessingUpdatedAt,
		t.UpdatedAt,
		t.ID,
	)

	if _, err := repository.pool.Exec(context, query, id, message); err != nil {
		return fmt.Errorf("postgres: failed to mark chapter failed: %w", err)
	}

	return nil
}

/*
CommitPages atomically publishes a finalized chapter and clears every
processing column in a single statement.

Parameters:
  - context: context.Context
  - id: int64
  - pages: int
  - prefix: string
  - ext: string

Returns:
  - error: Update failure
*/
func (repository *chapterRepository) CommitPages(context context.Context, id int64, pages int, prefix, ext string) error {
	t := schema.CoreChapter
	query := fmt.Sprintf(`
		UPDATE %s
		SET %s = $2,
		    %s = $3,
		    %s = $4,
		    %s = now(),
		    %s = now(),
		    %s = NULL,
		    %s = NULL,
		    %s = NULL,
		    %s = NULL,
		    %s = NULL,
		    %s = now()
		WHERE %s = $1
	`,
		t.Table,
		t.Pages,
		t.PagesPrefix,
		t.PagesExt,
		t.PagesUpdatedAt,
		t.PublishedAt,
		t.ProcessingState,
		t.ProcessingError,
		t.ProcessingDraftToken,
		t.ProcessingPages,
		t.ProcessingUpdatedAt,
		t.UpdatedAt,
		t.ID,
	)

	if _, err := repository.pool.Exec(context, query, id, pages, prefix, ext); err != nil {
		return fmt.Errorf("postgres: failed to commit pages: %w", err)
	}

	return nil
}

/*
ListProcessing returns ids of chapters persisted in state "processing",
oldest activity first.

Parameters:
  - context: context.Context
  - limit: int

Returns:
  - []int64: Chapter ids to re-enqueue
  - error: Query failure
*/
func (repository *chapterRepository) ListProcessing(context context.Context, limit int) ([]int64, error) {
	t := schema.CoreChapter
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE %s = 'processing'
		ORDER BY %s ASC NULLS FIRST
		LIMIT $1
	`,
		t.ID, t.Table, t.ProcessingState, t.ProcessingUpdatedAt,
	)

	rows, err := repository.pool.Query(context, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list processing chapters: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan chapter id: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

/*
ListByManga returns all chapter rows of a manga.

Parameters:
  - context: context.Context
  - mangaID: int64

Returns:
  - []*Chapter: Hydrated rows
  - error: Query failure
*/
func (repository *chapterRepository) ListByManga(context context.Context, mangaID int64) ([]*Chapter, error) {
	query := fmt.Sprintf(`SELECT %s FROM %s WHERE %s = $1 ORDER BY %s ASC`,
		chapterColumns(),
		schema.CoreChapter.Table,
		schema.CoreChapter.MangaID,
		schema.CoreChapter.Number,
	)

	rows, err := repository.pool.Query(context, query, mangaID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list chapters by manga: %w", err)
	}
	defer rows.Close()

	var chapters []*Chapter
	for rows.Next() {
		chapter, err := scanChapter(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan chapter: %w", err)
		}
		chapters = append(chapters, chapter)
	}

	return chapters, rows.Err()
}

/*
Delete removes a chapter row.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: Removal failure
*/
func (repository *chapterRepository) Delete(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.CoreChapter.Table,
		schema.CoreChapter.ID,
	)

	_, err := repository.pool.Exec(context, query, id)
	return dberr.Wrap(err, "delete_chapter")
}

// scanChapter hydrates one chapter from a row.
func scanChapter(row pgx.Row) (*Chapter, error) {
	var chapter Chapter
	err := row.Scan(
		&chapter.ID,
		&chapter.MangaID,
		&chapter.Number,
		&chapter.Pages,
		&chapter.PagesPrefix,
		&chapter.PagesExt,
		&chapter.PagesUpdatedAt,
		&chapter.ProcessingState,
		&chapter.ProcessingError,
		&chapter.ProcessingDraftToken,
		&chapter.ProcessingPages,
		&chapter.ProcessingUpdatedAt,
		&chapter.PublishedAt,
		&chapter.CreatedAt,
		&chapter.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &chapter, nil
}
