// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package schema

// CoreChapterTable represents the 'core.chapter' table
type CoreChapterTable struct {
	Table                string
	ID                   string
	MangaID              string
	Number               string
	Pages                string
	PagesPrefix          string
	PagesExt             string
	PagesUpdatedAt       string
	ProcessingState      string
	ProcessingError      string
	ProcessingDraftToken string
	ProcessingPages      string
	ProcessingUpdatedAt  string
	PublishedAt          string
	CreatedAt            string
	UpdatedAt            string
}

// CoreChapter is the schema definition for core.chapter
var CoreChapter = CoreChapterTable{
	Table:                "core.chapter",
	ID:                   "id",
	MangaID:              "mangaid",
	Number:               "chapternumber",
	Pages:                "pages",
	PagesPrefix:          "pagesprefix",
	PagesExt:             "pagesext",
	PagesUpdatedAt:       "pagesupdatedat",
	ProcessingState:      "processingstate",
	ProcessingError:      "processingerror",
	ProcessingDraftToken: "processingdrafttoken",
	ProcessingPages:      "processingpages",
	ProcessingUpdatedAt:  "processingupdatedat",
	PublishedAt:          "publishedat",
	CreatedAt:            "createdat",
	UpdatedAt:            "updatedat",
}

func (t CoreChapterTable) Columns() []string {
	return []string{
		t.ID, t.MangaID, t.Number, t.Pages, t.PagesPrefix, t.PagesExt, t.PagesUpdatedAt,
		t.ProcessingState, t.ProcessingError, t.ProcessingDraftToken, t.ProcessingPages,
		t.ProcessingUpdatedAt, t.PublishedAt, t.CreatedAt, t.UpdatedAt,
	}
}
