// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreMangaTable represents the 'core.manga' table
type CoreMangaTable struct {
	Table     string
	ID        string
	Title     string
	CreatedAt string
	UpdatedAt string
	DeletedAt string
}

// CoreManga is the schema definition for core.manga
var CoreManga = CoreMangaTable{
	Table:     "core.manga",
	ID:        "id",
	Title:     "title",
	CreatedAt: "createdat",
	UpdatedAt: "updatedat",
	DeletedAt: "deletedat",
}

func (t CoreMangaTable) Columns() []string {
	return []string{t.ID, t.Title, t.CreatedAt, t.UpdatedAt, t.DeletedAt}
}
