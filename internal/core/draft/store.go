// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package draft

import (
	"context"
	"time"
)

// # Draft Data Access

// DraftRepository defines the data access contract for upload sessions.
type DraftRepository interface {

	/*
		Create persists a new draft row.

		Parameters:
		  - context: context.Context
		  - draft: *Draft (Token and PagesPrefix already computed)

		Returns:
		  - error: Storage failure
	*/
	Create(context context.Context, draft *Draft) error

	/*
		FindByToken returns the draft with the given token.

		Parameters:
		  - context: context.Context
		  - token: string (32-hex, pre-validated)

		Returns:
		  - *Draft: Hydrated session row
		  - error: ErrNotFound if missing
	*/
	FindByToken(context context.Context, token string) (*Draft, error)

	/*
		Touch bumps the draft's UpdatedAt keep-alive timestamp.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: ErrNotFound if missing
	*/
	Touch(context context.Context, token string) error

	/*
		Delete removes the draft row. The caller must have purged the
		storage prefix first.

		Parameters:
		  - context: context.Context
		  - token: string

		Returns:
		  - error: Removal failure
	*/
	Delete(context context.Context, token string) error

	/*
		ListExpired returns drafts idle past the TTL, excluding any whose
		token is the processing draft of a chapter in state "processing".

		Parameters:
		  - context: context.Context
		  - ttl: time.Duration (inactivity window)
		  - limit: int (batch bound per sweep)

		Returns:
		  - []*Draft: Expiry candidates, oldest first
		  - error: Storage failure
	*/
	ListExpired(context context.Context, ttl time.Duration, limit int) ([]*Draft, error)

	/*
		ListByManga returns all draft rows owned by a manga, regardless of age.
		Used by cascade deletion to catch drifted prefixes.

		Parameters:
		  - context: context.Context
		  - mangaID: int64

		Returns:
		  - []*Draft: All sessions of the manga
		  - error: Storage failure
	*/
	ListByManga(context context.Context, mangaID int64) ([]*Draft, error)
}
