// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package manga implements cascade deletion of chapters and whole manga,
including every stored page object, draft upload, and tracking row.

Deletion order is objects first, rows last: a row that still exists always
points at its storage, so a crash mid-cascade leaves discoverable objects
rather than orphans.
*/
package manga

import "time"

// Manga carries the fields of core.manga relevant to cascade deletion.
type Manga struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
}
