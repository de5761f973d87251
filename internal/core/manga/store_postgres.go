// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/database/schema"
	"github.com/taibuivan/yomira-media/internal/platform/dberr"
)

// # PostgreSQL Repository

// mangaRepository implements the [MangaRepository] interface using pgx.
type mangaRepository struct {
	pool *pgxpool.Pool
}

// NewMangaRepository constructs a PostgreSQL backed manga store.
func NewMangaRepository(pool *pgxpool.Pool) MangaRepository {
	return &mangaRepository{pool: pool}
}

/*
FindByID returns the manga with the given ID.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - *Manga: Hydrated row
  - error: NotFound if missing
*/
func (repository *mangaRepository) FindByID(context context.Context, id int64) (*Manga, error) {
	t := schema.CoreManga
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s FROM %s WHERE %s = $1`,
		t.ID, t.Title, t.CreatedAt, t.UpdatedAt, t.DeletedAt,
		t.Table,
		t.ID,
	)

	var manga Manga
	err := repository.pool.QueryRow(context, query, id).Scan(
		&manga.ID,
		&manga.Title,
		&manga.CreatedAt,
		&manga.UpdatedAt,
		&manga.DeletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.NotFound("Manga")
		}
		return nil, fmt.Errorf("postgres: failed to find manga: %w", err)
	}

	return &manga, nil
}

/*
Delete removes a manga row; chapter and draft rows cascade with it.

Parameters:
  - context: context.Context
  - id: int64

Returns:
  - error: Removal failure
*/
func (repository *mangaRepository) Delete(context context.Context, id int64) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1`,
		schema.CoreManga.Table,
		schema.CoreManga.ID,
	)

	_, err := repository.pool.Exec(context, query, id)
	return dberr.Wrap(err, "delete_manga")
}
