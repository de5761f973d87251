// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package draft

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/database/schema"
	"github.com/taibuivan/yomira-media/internal/platform/dberr"
)

// # PostgreSQL Repository

// draftRepository implements the [DraftRepository] interface using pgx.
type draftRepository struct {
	pool *pgxpool.Pool
}

// NewDraftRepository constructs a PostgreSQL backed draft store.
func NewDraftRepository(pool *pgxpool.Pool) DraftRepository {
	return &draftRepository{pool: pool}
}

/*
Create persists a new draft row.

Parameters:
  - context: context.Context
  - draft: *Draft

Returns:
  - error: Insert failure
*/
func (repository *draftRepository) Create(context context.Context, draft *Draft) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (%s, %s, %s, %s, %s)
		VALUES ($1, $2, $3, now(), now())
		RETURNING %s, %s
	`,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.Token,
		schema.CoreChapterDraft.MangaID,
		schema.CoreChapterDraft.PagesPrefix,
		schema.CoreChapterDraft.CreatedAt,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapterDraft.CreatedAt,
		schema.CoreChapterDraft.UpdatedAt,
	)

	err := repository.pool.QueryRow(context, query,
		draft.Token,
		draft.MangaID,
		draft.PagesPrefix,
	).Scan(&draft.CreatedAt, &draft.UpdatedAt)
	if err != nil {
		return fmt.Errorf("postgres: failed to create draft: %w", err)
	}

	return nil
}

/*
FindByToken returns the draft with the given token.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *Draft: Hydrated row
  - error: NotFound if missing
*/
func (repository *draftRepository) FindByToken(context context.Context, token string) (*Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreChapterDraft.Token,
		schema.CoreChapterDraft.MangaID,
		schema.CoreChapterDraft.PagesPrefix,
		schema.CoreChapterDraft.CreatedAt,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.Token,
	)

	var draft Draft
	err := repository.pool.QueryRow(context, query, token).Scan(
		&draft.Token,
		&draft.MangaID,
		&draft.PagesPrefix,
		&draft.CreatedAt,
		&draft.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Draft")
		}
		return nil, fmt.Errorf("postgres: failed to find draft: %w", err)
	}

	return &draft, nil
}

/*
Touch bumps the keep-alive timestamp.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: NotFound if no row was updated
*/
func (repository *draftRepository) Touch(context context.Context, token string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET %s = now() WHERE %s = $1
	`,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapterDraft.Token,
	)

	tag, err := repository.pool.Exec(context, query, token)
	if err != nil {
		return fmt.Errorf("postgres: failed to touch draft: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Draft")
	}

	return nil
}

/*
Delete removes the draft row.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: Removal failure (missing rows are not an error)
*/
func (repository *draftRepository) Delete(context context.Context, token string) error {
	query := fmt.Sprintf(`
		DELETE FROM %s WHERE %s = $1
	`,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.Token,
	)

	_, err := repository.pool.Exec(context, query, token)
	return dberr.Wrap(err, "delete_draft")
}

/*
ListExpired returns expiry candidates: idle past the TTL and not referenced
by any chapter currently in state "processing".

Parameters:
  - context: context.Context
  - ttl: time.Duration
  - limit: int

Returns:
  - []*Draft: Oldest first
  - error: Query failure
*/
func (repository *draftRepository) ListExpired(context context.Context, ttl time.Duration, limit int) ([]*Draft, error) {
	query := fmt.Sprintf(`
		SELECT d.%s, d.%s, d.%s, d.%s, d.%s
		FROM %s d
		WHERE d.%s < now() - make_interval(secs => $1)
		  AND NOT EXISTS (
			SELECT 1 FROM %s c
			WHERE c.%s = d.%s AND c.%s = 'processing'
		  )
		ORDER BY d.%s ASC
		LIMIT $2
	`,
		schema.CoreChapterDraft.Token,
		schema.CoreChapterDraft.MangaID,
		schema.CoreChapterDraft.PagesPrefix,
		schema.CoreChapterDraft.CreatedAt,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapter.Table,
		schema.CoreChapter.ProcessingDraftToken,
		schema.CoreChapterDraft.Token,
		schema.CoreChapter.ProcessingState,
		schema.CoreChapterDraft.UpdatedAt,
	)

	rows, err := repository.pool.Query(context, query, ttl.Seconds(), limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list expired drafts: %w", err)
	}
	defer rows.Close()

	return scanDrafts(rows)
}

/*
ListByManga returns all draft rows owned by a manga.

Parameters:
  - context: context.Context
  - mangaID: int64

Returns:
  - []*Draft: All sessions
  - error: Query failure
*/
func (repository *draftRepository) ListByManga(context context.Context, mangaID int64) ([]*Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s, %s, %s, %s, %s
		FROM %s
		WHERE %s = $1
	`,
		schema.CoreChapterDraft.Token,
		schema.CoreChapterDraft.MangaID,
		schema.CoreChapterDraft.PagesPrefix,
		schema.CoreChapterDraft.CreatedAt,
		schema.CoreChapterDraft.UpdatedAt,
		schema.CoreChapterDraft.Table,
		schema.CoreChapterDraft.MangaID,
	)

	rows, err := repository.pool.Query(context, query, mangaID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to list drafts by manga: %w", err)
	}
	defer rows.Close()

	return scanDrafts(rows)
}

// scanDrafts hydrates draft entities from an open row set.
func scanDrafts(rows pgx.Rows) ([]*Draft, error) {
	var drafts []*Draft
	for rows.Next() {
		var draft Draft
		err := rows.Scan(
			&draft.Token,
			&draft.MangaID,
			&draft.PagesPrefix,
			&draft.CreatedAt,
			&draft.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan draft: %w", err)
		}
		drafts = append(drafts, &draft)
	}

	return drafts, rows.Err()
}
