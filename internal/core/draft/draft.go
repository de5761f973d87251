// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package draft implements the draft registry: temporary, token-addressed
upload sessions for chapter pages.

A draft is created when an edit/upload session begins and is destroyed either
by a successful finalize (storage prefix purged, then row deleted) or by the
cleanup sweep once it has been idle past its TTL and is not referenced by a
chapter that is currently being finalized.
*/
package draft

import "time"

// Draft is one in-progress upload session.
//
// # Invariants
//
//   - Token is always 32 lowercase hex characters.
//   - PagesPrefix is deterministic from (MangaID, Token) and never mutated.
//   - UpdatedAt is the keep-alive clock: the TTL is measured against it.
type Draft struct {
	Token       string    `json:"token"`
	MangaID     int64     `json:"manga_id"`
	PagesPrefix string    `json:"pages_prefix"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
