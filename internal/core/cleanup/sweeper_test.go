// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package cleanup_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-media/internal/core/cleanup"
	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/storage"
)

type fakeDraftRepo struct {
	drafts  map[string]*draft.Draft
	expired []string
	deleted []string
	touched []string
}

func newFakeDraftRepo() *fakeDraftRepo {
	return &fakeDraftRepo{drafts: map[string]*draft.Draft{}}
}

func (f *fakeDraftRepo) Create(_ context.Context, d *draft.Draft) error {
	f.drafts[d.Token] = d
	return nil
}

func (f *fakeDraftRepo) FindByToken(_ context.Context, token string) (*draft.Draft, error) {
	d, ok := f.drafts[token]
	if !ok {
		return nil, apperr.NotFound("Draft")
	}
	return d, nil
}

func (f *fakeDraftRepo) Touch(_ context.Context, token string) error {
	f.touched = append(f.touched, token)
	return nil
}

func (f *fakeDraftRepo) Delete(_ context.Context, token string) error {
	delete(f.drafts, token)
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeDraftRepo) ListExpired(_ context.Context, _ time.Duration, limit int) ([]*draft.Draft, error) {
	var rows []*draft.Draft
	for _, token := range f.expired {
		if d, ok := f.drafts[token]; ok && len(rows) < limit {
			rows = append(rows, d)
		}
	}
	return rows, nil
}

func (f *fakeDraftRepo) ListByManga(_ context.Context, _ int64) ([]*draft.Draft, error) {
	return nil, nil
}

type fakeObjectStore struct {
	purged    []string
	failingOn string
}

func (f *fakeObjectStore) Put(_ context.Context, _ string, _ []byte, _ string) error {
	return nil
}

func (f *fakeObjectStore) PurgePrefix(_ context.Context, prefix string) error {
	if f.failingOn != "" && strings.Contains(prefix, f.failingOn) {
		return errors.New("backend unavailable")
	}
	f.purged = append(f.purged, prefix)
	return nil
}

func seedDraft(repo *fakeDraftRepo, token string, expired bool) *draft.Draft {
	d := &draft.Draft{
		Token:       token,
		MangaID:     7,
		PagesPrefix: "chapters/tmp/manga-7/draft-" + token,
	}
	repo.drafts[token] = d
	if expired {
		repo.expired = append(repo.expired, token)
	}
	return d
}

func newSweeper(repo *fakeDraftRepo, store *fakeObjectStore) *cleanup.Sweeper {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	layout := storage.Layout{Root: "chapters"}
	drafts := draft.NewService(repo, store, layout, nil, logger)
	return cleanup.NewSweeper(repo, drafts, logger)
}

/*
TestSweeper_Sweep_DestroysExpiredDrafts verifies expired drafts have their
prefixes purged and rows deleted, while live drafts are untouched.
*/
func TestSweeper_Sweep_DestroysExpiredDrafts(t *testing.T) {
	repo := newFakeDraftRepo()
	store := &fakeObjectStore{}

	stale := seedDraft(repo, strings.Repeat("a", 32), true)
	live := seedDraft(repo, strings.Repeat("b", 32), false)

	destroyed := newSweeper(repo, store).Sweep(context.Background())

	assert.Equal(t, 1, destroyed)
	assert.Contains(t, store.purged, stale.PagesPrefix)
	assert.Contains(t, repo.deleted, stale.Token)
	assert.NotContains(t, repo.deleted, live.Token)
}

/*
TestSweeper_Sweep_KeepsDraftOnPurgeFailure verifies a draft whose prefix
purge fails stays in the registry with a refreshed keep-alive, and does not
abort the rest of the batch.
*/
func TestSweeper_Sweep_KeepsDraftOnPurgeFailure(t *testing.T) {
	repo := newFakeDraftRepo()

	broken := seedDraft(repo, strings.Repeat("c", 32), true)
	healthy := seedDraft(repo, strings.Repeat("d", 32), true)
	store := &fakeObjectStore{failingOn: broken.Token}

	destroyed := newSweeper(repo, store).Sweep(context.Background())

	// 1. The healthy draft is destroyed despite the earlier failure
	assert.Equal(t, 1, destroyed)
	assert.Contains(t, repo.deleted, healthy.Token)

	// 2. The broken draft survives, touched for a later retry
	require.NotContains(t, repo.deleted, broken.Token)
	assert.Contains(t, repo.touched, broken.Token)
}

/*
TestSweeper_Sweep_EmptyRegistry verifies a sweep over nothing is a no-op.
*/
func TestSweeper_Sweep_EmptyRegistry(t *testing.T) {
	repo := newFakeDraftRepo()
	store := &fakeObjectStore{}

	assert.Equal(t, 0, newSweeper(repo, store).Sweep(context.Background()))
	assert.Empty(t, store.purged)
}
