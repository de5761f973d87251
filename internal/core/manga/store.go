// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import "context"

// # Manga Data Access

// MangaRepository defines the data access contract for cascade deletion.
type MangaRepository interface {

	/*
		FindByID returns the manga with the given ID.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - *Manga: Hydrated row
		  - error: NotFound if missing
	*/
	FindByID(context context.Context, id int64) (*Manga, error)

	/*
		Delete removes the manga row. Chapter and draft rows reference it
		with ON DELETE CASCADE, so they disappear with it.

		Parameters:
		  - context: context.Context
		  - id: int64

		Returns:
		  - error: Removal failure
	*/
	Delete(context context.Context, id int64) error
}
