// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-media/internal/core/adminjobs"
	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/core/manga"
	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/storage"
)

// # Fakes

type fakeMangaRepo struct {
	mu      sync.Mutex
	rows    map[int64]*manga.Manga
	deleted []int64
}

func (f *fakeMangaRepo) FindByID(_ context.Context, id int64) (*manga.Manga, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("Manga")
	}
	clone := *row
	return &clone, nil
}

func (f *fakeMangaRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeChapterRepo struct {
	mu      sync.Mutex
	rows    map[int64]*chapter.Chapter
	deleted []int64
}

func (f *fakeChapterRepo) FindByID(_ context.Context, id int64) (*chapter.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, apperr.NotFound("Chapter")
	}
	clone := *row
	return &clone, nil
}

func (f *fakeChapterRepo) BeginProcessing(_ context.Context, _ int64, _ string, _ []string) (bool, error) {
	return false, nil
}

func (f *fakeChapterRepo) ReadProcessingState(_ context.Context, _ int64) (*string, error) {
	return nil, nil
}

func (f *fakeChapterRepo) TouchProcessing(_ context.Context, _ int64) error { return nil }

func (f *fakeChapterRepo) MarkFailed(_ context.Context, _ int64, _ string) error { return nil }

func (f *fakeChapterRepo) CommitPages(_ context.Context, _ int64, _ int, _, _ string) error {
	return nil
}

func (f *fakeChapterRepo) ListProcessing(_ context.Context, _ int) ([]int64, error) {
	return nil, nil
}

func (f *fakeChapterRepo) ListByManga(_ context.Context, mangaID int64) ([]*chapter.Chapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*chapter.Chapter
	for _, row := range f.rows {
		if row.MangaID == mangaID {
			clone := *row
			rows = append(rows, &clone)
		}
	}
	return rows, nil
}

func (f *fakeChapterRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeDraftRepo struct {
	mu      sync.Mutex
	rows    map[string]*draft.Draft
	deleted []string
}

func (f *fakeDraftRepo) Create(_ context.Context, d *draft.Draft) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[d.Token] = d
	return nil
}

func (f *fakeDraftRepo) FindByToken(_ context.Context, token string) (*draft.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.rows[token]
	if !ok {
		return nil, apperr.NotFound("Draft")
	}
	clone := *d
	return &clone, nil
}

func (f *fakeDraftRepo) Touch(_ context.Context, _ string) error { return nil }

func (f *fakeDraftRepo) Delete(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, token)
	f.deleted = append(f.deleted, token)
	return nil
}

func (f *fakeDraftRepo) ListExpired(_ context.Context, _ time.Duration, _ int) ([]*draft.Draft, error) {
	return nil, nil
}

func (f *fakeDraftRepo) ListByManga(_ context.Context, mangaID int64) ([]*draft.Draft, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rows []*draft.Draft
	for _, d := range f.rows {
		if d.MangaID == mangaID {
			clone := *d
			rows = append(rows, &clone)
		}
	}
	return rows, nil
}

type fakeStore struct {
	mu        sync.Mutex
	objects   map[string]struct{}
	purged    []string
	failingOn string
}

func (f *fakeStore) put(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = struct{}{}
}

func (f *fakeStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.objects[key]
	return ok
}

func (f *fakeStore) PurgePrefix(_ context.Context, prefix string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failingOn != "" && strings.HasPrefix(prefix, f.failingOn) {
		return errors.New("backend unavailable")
	}
	f.purged = append(f.purged, prefix)
	for key := range f.objects {
		if matchPrefix(key, prefix) {
			delete(f.objects, key)
		}
	}
	return nil
}

// matchPrefix mirrors the adapter's purge semantics: the prefix is terminated
// with "/" before raw string matching, so "manga-7" never matches "manga-70/...".
func matchPrefix(key, prefix string) bool {
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return strings.HasPrefix(key, prefix)
}

// # Harness

type harness struct {
	mangaRepo   *fakeMangaRepo
	chapterRepo *fakeChapterRepo
	draftRepo   *fakeDraftRepo
	store       *fakeStore
	runner      *adminjobs.Runner
	service     *manga.Service
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	layout := storage.Layout{Root: "chapters"}

	h := &harness{
		mangaRepo:   &fakeMangaRepo{rows: map[int64]*manga.Manga{}},
		chapterRepo: &fakeChapterRepo{rows: map[int64]*chapter.Chapter{}},
		draftRepo:   &fakeDraftRepo{rows: map[string]*draft.Draft{}},
		store:       &fakeStore{objects: map[string]struct{}{}},
	}
	h.runner = adminjobs.NewRunner(adminjobs.NewMemoryJobStore(), logger)
	h.service = manga.NewService(h.mangaRepo, h.chapterRepo, h.draftRepo, h.store, layout, h.runner, logger)
	return h
}

const testToken = "abcdef0123456789abcdef0123456789"

// # Tests

/*
TestService_DeleteChapter_PurgesObjectsAndDraft verifies a chapter deletion
removes its published prefix, the draft attached to an in-flight finalize,
and finally the rows.
*/
func TestService_DeleteChapter_PurgesObjectsAndDraft(t *testing.T) {
	h := newHarness(t)

	prefix := "chapters/manga-7/ch-3"
	draftPrefix := "chapters/tmp/manga-7/draft-" + testToken
	token := testToken
	h.chapterRepo.rows[42] = &chapter.Chapter{
		ID:                   42,
		MangaID:              7,
		PagesPrefix:          &prefix,
		ProcessingDraftToken: &token,
	}
	h.draftRepo.rows[testToken] = &draft.Draft{Token: testToken, MangaID: 7, PagesPrefix: draftPrefix}

	require.NoError(t, h.service.DeleteChapter(context.Background(), 42))

	assert.Contains(t, h.store.purged, prefix)
	assert.Contains(t, h.store.purged, draftPrefix)
	assert.Contains(t, h.draftRepo.deleted, testToken)
	assert.Contains(t, h.chapterRepo.deleted, int64(42))
}

/*
TestService_DeleteChapter_KeepsRowOnPurgeFailure verifies the chapter row
survives when its objects could not be purged.
*/
func TestService_DeleteChapter_KeepsRowOnPurgeFailure(t *testing.T) {
	h := newHarness(t)

	prefix := "chapters/manga-7/ch-3"
	h.chapterRepo.rows[42] = &chapter.Chapter{ID: 42, MangaID: 7, PagesPrefix: &prefix}
	h.store.failingOn = prefix

	err := h.service.DeleteChapter(context.Background(), 42)

	require.Error(t, err)
	assert.Empty(t, h.chapterRepo.deleted)
	_, findErr := h.chapterRepo.FindByID(context.Background(), 42)
	assert.NoError(t, findErr)
}

/*
TestService_DeleteManga_PurgesRootsAndDriftedPrefixes verifies the cascade:
both canonical roots are purged, prefixes outside them are purged
individually, and the manga row goes last.
*/
func TestService_DeleteManga_PurgesRootsAndDriftedPrefixes(t *testing.T) {
	h := newHarness(t)
	h.mangaRepo.rows[7] = &manga.Manga{ID: 7, Title: "One Punch"}

	canonical := "chapters/manga-7/ch-1"
	drifted := "legacy/manga-7/ch-2"
	h.chapterRepo.rows[1] = &chapter.Chapter{ID: 1, MangaID: 7, PagesPrefix: &canonical}
	h.chapterRepo.rows[2] = &chapter.Chapter{ID: 2, MangaID: 7, PagesPrefix: &drifted}

	driftedDraft := "legacy/tmp/manga-7/draft-" + testToken
	h.draftRepo.rows[testToken] = &draft.Draft{Token: testToken, MangaID: 7, PagesPrefix: driftedDraft}

	require.NoError(t, h.service.DeleteManga(context.Background(), 7))

	// 1. Canonical roots purged wholesale
	assert.Contains(t, h.store.purged, "chapters/manga-7")
	assert.Contains(t, h.store.purged, "chapters/tmp/manga-7")

	// 2. Drifted prefixes purged individually, canonical children skipped
	assert.Contains(t, h.store.purged, drifted)
	assert.Contains(t, h.store.purged, driftedDraft)
	assert.NotContains(t, h.store.purged, canonical)

	// 3. Row removed last
	assert.Contains(t, h.mangaRepo.deleted, int64(7))
}

/*
TestService_DeleteManga_SparesNeighboringManga verifies the cascade stays
inside the manga's own roots: "manga-7" must not take "manga-70" with it.
*/
func TestService_DeleteManga_SparesNeighboringManga(t *testing.T) {
	h := newHarness(t)
	h.mangaRepo.rows[7] = &manga.Manga{ID: 7, Title: "One Punch"}

	prefix := "chapters/manga-7/ch-1"
	h.chapterRepo.rows[1] = &chapter.Chapter{ID: 1, MangaID: 7, PagesPrefix: &prefix}
	h.store.put("chapters/manga-7/ch-1/001.webp")
	h.store.put("chapters/manga-70/ch-1/001.webp")
	h.store.put("chapters/tmp/manga-70/draft-" + testToken + "/" + strings.Repeat("a", 24) + ".webp")

	require.NoError(t, h.service.DeleteManga(context.Background(), 7))

	// 1. Manga 7's objects are gone
	assert.False(t, h.store.has("chapters/manga-7/ch-1/001.webp"))

	// 2. Manga 70's pages and drafts are untouched
	assert.True(t, h.store.has("chapters/manga-70/ch-1/001.webp"))
	assert.True(t, h.store.has("chapters/tmp/manga-70/draft-"+testToken+"/"+strings.Repeat("a", 24)+".webp"))
}

/*
TestService_DeleteManga_StopsOnPurgeFailure verifies the manga row survives
a failed root purge.
*/
func TestService_DeleteManga_StopsOnPurgeFailure(t *testing.T) {
	h := newHarness(t)
	h.mangaRepo.rows[7] = &manga.Manga{ID: 7, Title: "One Punch"}
	h.store.failingOn = "chapters/manga-7"

	err := h.service.DeleteManga(context.Background(), 7)

	require.Error(t, err)
	assert.Empty(t, h.mangaRepo.deleted)
}

/*
TestService_EnqueueDeleteChapter_RunsJob verifies the async path: the job is
queued, executed by the runner, and reaches state "done" with the chapter
gone.
*/
func TestService_EnqueueDeleteChapter_RunsJob(t *testing.T) {
	h := newHarness(t)
	h.runner.Start(context.Background())
	defer h.runner.Stop()

	prefix := "chapters/manga-7/ch-3"
	h.chapterRepo.rows[42] = &chapter.Chapter{ID: 42, MangaID: 7, PagesPrefix: &prefix}

	job, err := h.service.EnqueueDeleteChapter(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, adminjobs.KindDeleteChapter, job.Kind)

	require.Eventually(t, func() bool {
		record, err := h.runner.Find(context.Background(), job.ID)
		return err == nil && record.State == adminjobs.StateDone
	}, 2*time.Second, 10*time.Millisecond)

	_, findErr := h.chapterRepo.FindByID(context.Background(), 42)
	assert.NotNil(t, apperr.As(findErr))
}

/*
TestService_EnqueueDeleteManga_UnknownTarget verifies no job is created for
a manga that does not exist.
*/
func TestService_EnqueueDeleteManga_UnknownTarget(t *testing.T) {
	h := newHarness(t)

	_, err := h.service.EnqueueDeleteManga(context.Background(), 99)

	appErr := apperr.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}
