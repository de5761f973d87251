// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreChapterDraftTable represents the 'core.chapterdraft' table
type CoreChapterDraftTable struct {
	Table       string
	Token       string
	MangaID     string
	PagesPrefix string
	CreatedAt   string
	UpdatedAt   string
}

// CoreChapterDraft is the schema definition for core.chapterdraft
var CoreChapterDraft = CoreChapterDraftTable{
	Table:       "core.chapterdraft",
	Token:       "token",
	MangaID:     "mangaid",
	PagesPrefix: "pagesprefix",
	CreatedAt:   "createdat",
	UpdatedAt:   "updatedat",
}

func (t CoreChapterDraftTable) Columns() []string {
	return []string{t.Token, t.MangaID, t.PagesPrefix, t.CreatedAt, t.UpdatedAt}
}
