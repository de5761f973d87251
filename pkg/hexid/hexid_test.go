// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package hexid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-media/pkg/hexid"
)

/*
TestNewToken verifies generated draft tokens are well-formed and unique.
*/
func TestNewToken(t *testing.T) {
	seen := make(map[string]bool)

	for i := 0; i < 100; i++ {
		token := hexid.NewToken()
		require.Len(t, token, hexid.TokenLen)
		assert.True(t, hexid.IsToken(token))
		assert.False(t, seen[token], "token collision")
		seen[token] = true
	}
}

/*
TestNewPageID verifies generated page ids are well-formed.
*/
func TestNewPageID(t *testing.T) {
	id := hexid.NewPageID()
	assert.Len(t, id, hexid.PageIDLen)
	assert.True(t, hexid.IsPageID(id))
}

/*
TestPageIDForChapterPage verifies the deterministic id is stable and distinct
per (chapter, page) pair.
*/
func TestPageIDForChapterPage(t *testing.T) {
	first := hexid.PageIDForChapterPage(42, 1)
	again := hexid.PageIDForChapterPage(42, 1)
	other := hexid.PageIDForChapterPage(42, 2)

	assert.Equal(t, first, again, "must be stable across calls")
	assert.NotEqual(t, first, other)
	assert.Len(t, first, hexid.PageIDLen)
	assert.True(t, hexid.IsPageID(first))
}

/*
TestIsToken exercises token format validation edge cases.
*/
func TestIsToken(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"valid_token", "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", true},
		{"too_short", "a1b2c3", false},
		{"too_long", "a1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4ff", false},
		{"uppercase_rejected", "A1B2C3D4E5F6A1B2C3D4E5F6A1B2C3D4", false},
		{"non_hex", "g1b2c3d4e5f6a1b2c3d4e5f6a1b2c3d4", false},
		{"empty", "", false},
		{"sql_injection", "'; DROP TABLE core.chapterdraft--", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, hexid.IsToken(tt.value))
		})
	}
}

/*
TestIsPageID exercises page id format validation edge cases.
*/
func TestIsPageID(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		isValid bool
	}{
		{"valid_id", "0123456789abcdef01234567", true},
		{"too_short", "0123456789abcdef", false},
		{"uppercase_rejected", "0123456789ABCDEF01234567", false},
		{"path_traversal", "../../../../etc/passwd", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.isValid, hexid.IsPageID(tt.value))
		})
	}
}
