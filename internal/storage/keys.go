// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/taibuivan/yomira-media/pkg/hexid"
)

// # Canonical Key Layout
//
// All chapter page objects live under a single configurable root prefix:
//
//	{root}/manga-{mangaID}/ch-{number}/{NNN}.webp     (published pages)
//	{root}/tmp/manga-{mangaID}/draft-{token}/{id}.webp (draft uploads)
//
// Layout is the single owner of this scheme; no other package builds keys
// by hand.

// Layout computes storage keys and prefixes from the configured root.
type Layout struct {
	// Root is the chapter key prefix, e.g. "chapters".
	Root string

	// CDNBaseURL, when set, is prepended to keys to form public URLs.
	CDNBaseURL string
}

// MangaRoot returns the canonical prefix holding all published chapters of a manga.
func (l Layout) MangaRoot(mangaID int64) string {
	return fmt.Sprintf("%s/manga-%d", l.Root, mangaID)
}

// MangaTmpRoot returns the prefix holding all draft uploads of a manga.
func (l Layout) MangaTmpRoot(mangaID int64) string {
	return fmt.Sprintf("%s/tmp/manga-%d", l.Root, mangaID)
}

// ChapterPrefix returns the canonical destination prefix for a chapter.
//
// The chapter number is rendered without trailing zeros, so both "ch-12"
// and "ch-12.5" are valid segments.
func (l Layout) ChapterPrefix(mangaID int64, number float64) string {
	return fmt.Sprintf("%s/ch-%s", l.MangaRoot(mangaID), FormatChapterNumber(number))
}

// DraftPrefix returns the temporary prefix for a draft upload session.
func (l Layout) DraftPrefix(mangaID int64, token string) string {
	return fmt.Sprintf("%s/draft-%s", l.MangaTmpRoot(mangaID), token)
}

// DraftPageKey returns the object key of one uploaded page inside a draft.
func (l Layout) DraftPageKey(draftPrefix, pageID string) string {
	return draftPrefix + "/" + pageID + ".webp"
}

// PageKey returns the canonical numbered key for the 1-based page index of a
// chapter with total pages.
func (l Layout) PageKey(chapterPrefix string, index, total int) string {
	return fmt.Sprintf("%s/%0*d.webp", chapterPrefix, PagePadding(total), index)
}

// PublicURL joins the CDN base with a canonical key. Returns the bare key
// when no CDN base is configured.
func (l Layout) PublicURL(key string) string {
	if l.CDNBaseURL == "" {
		return key
	}
	return strings.TrimSuffix(l.CDNBaseURL, "/") + "/" + key
}

// PagePadding returns the zero-padding width for page numbers in a chapter
// of the given total: max(3, min(6, digits(total))).
func PagePadding(total int) int {
	digits := len(strconv.Itoa(total))
	if digits < 3 {
		return 3
	}
	if digits > 6 {
		return 6
	}
	return digits
}

// FormatChapterNumber renders a chapter number without trailing zeros
// ("12", "12.5").
func FormatChapterNumber(number float64) string {
	return strconv.FormatFloat(number, 'f', -1, 64)
}

// ParsePageNumber extracts the 1-based page number from a canonical page key
// ("{prefix}/012.webp" -> 12). It reports false for keys that do not follow
// the numbered layout.
func ParsePageNumber(key string) (int, bool) {
	base := key
	if idx := strings.LastIndexByte(key, '/'); idx >= 0 {
		base = key[idx+1:]
	}

	name, found := strings.CutSuffix(base, ".webp")
	if !found || name == "" {
		return 0, false
	}

	number, err := strconv.Atoi(name)
	if err != nil || number < 1 {
		return 0, false
	}
	return number, true
}

// IsDraftPageKey reports whether base names inside a draft prefix follow the
// "{24-hex}.webp" pattern.
func IsDraftPageKey(key string) bool {
	base := key
	if idx := strings.LastIndexByte(key, '/'); idx >= 0 {
		base = key[idx+1:]
	}
	name, found := strings.CutSuffix(base, ".webp")
	return found && hexid.IsPageID(name)
}
