// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package hexid provides the opaque hexadecimal identifiers used by the media
storage pipeline.

Two identifier families exist:

  - Draft tokens: 32 lowercase hex characters (128 bits of entropy),
    addressing a temporary upload session.
  - Page ids: 24 lowercase hex characters, naming a single page image inside
    a draft prefix or a published chapter.

Page ids have two provenances. Freshly uploaded pages receive a random id.
Pages that already exist in a published chapter are addressed by a
deterministic id derived from (chapterID, pageNumber), which lets an edit
reference an already-stored page without re-uploading its bytes.
*/
package hexid

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
)

// # Format

const (
	// TokenLen is the character length of a draft token.
	TokenLen = 32

	// PageIDLen is the character length of a page id.
	PageIDLen = 24
)

var (
	// tokenRegex matches a well-formed draft token.
	tokenRegex = regexp.MustCompile(`^[a-f0-9]{32}$`)

	// pageIDRegex matches a well-formed page id.
	pageIDRegex = regexp.MustCompile(`^[a-f0-9]{24}$`)
)

// # Generators

// NewToken generates a random 32-hex-char draft token.
func NewToken() string {
	return randomHex(TokenLen / 2)
}

// NewPageID generates a random 24-hex-char page id for a fresh upload.
func NewPageID() string {
	return randomHex(PageIDLen / 2)
}

// PageIDForChapterPage derives the deterministic page id for a page that
// already exists in a published chapter.
//
// # Stability
//
// The id is the first 24 hex characters of SHA-256 over "{chapterID}:{page}".
// It must never change between releases: stored drafts reference these ids
// across deploys.
func PageIDForChapterPage(chapterID int64, pageNumber int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%d:%d", chapterID, pageNumber)))
	return hex.EncodeToString(sum[:])[:PageIDLen]
}

// # Validation

// IsToken reports whether value is a well-formed draft token.
func IsToken(value string) bool {
	return tokenRegex.MatchString(value)
}

// IsPageID reports whether value is a well-formed page id.
func IsPageID(value string) bool {
	return pageIDRegex.MatchString(value)
}

// randomHex returns n random bytes encoded as 2n lowercase hex characters.
func randomHex(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		// entropy failure is an unrecoverable system-level error
		panic("hexid: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
