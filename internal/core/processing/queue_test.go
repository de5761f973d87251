// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package processing_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/core/processing"
)

/*
TestQueue_WorkerFinalizesSubmission verifies the end-to-end flow: a submitted
chapter is claimed, drained by the worker, and published.
*/
func TestQueue_WorkerFinalizesSubmission(t *testing.T) {
	h := newHarness()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := processing.NewQueue(h.finalizer, h.chapterRepo, logger)
	service := processing.NewService(h.chapterRepo, queue, logger)

	pages := []string{pageID('a'), pageID('b')}
	h.seedDraft(testToken, 7, pages...)
	h.chapterRepo.chapters[42] = &chapter.Chapter{ID: 42, MangaID: 7, Number: 1}

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, service.Submit(context.Background(), 42, testToken, pages))

	require.Eventually(t, func() bool {
		row := h.chapterRepo.get(42)
		return row.Pages == 2 && row.ProcessingState == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.True(t, h.store.has("chapters/manga-7/ch-1/001.webp"))
	assert.True(t, h.store.has("chapters/manga-7/ch-1/002.webp"))
}

/*
TestQueue_EnqueueDeduplicates verifies a chapter already pending or running
is not executed twice.
*/
func TestQueue_EnqueueDeduplicates(t *testing.T) {
	h := newHarness()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := processing.NewQueue(h.finalizer, h.chapterRepo, logger)

	pages := []string{pageID('a')}
	h.seedDraft(testToken, 7, pages...)
	h.seedChapter(42, 7, 1, testToken, pages)

	// Hold the worker inside its first row lookup while duplicates arrive.
	gate := make(chan struct{})
	h.chapterRepo.findGate = gate

	queue.Start(context.Background())
	defer queue.Stop()

	assert.True(t, queue.Enqueue(42))
	assert.True(t, queue.Enqueue(42))
	assert.True(t, queue.Enqueue(42))
	close(gate)

	require.Eventually(t, func() bool {
		return h.chapterRepo.get(42).ProcessingState == nil
	}, 2*time.Second, 10*time.Millisecond)

	h.chapterRepo.mu.Lock()
	defer h.chapterRepo.mu.Unlock()
	assert.Equal(t, 1, h.chapterRepo.findCalls)
	assert.Equal(t, 1, h.chapterRepo.commits)
}

/*
TestQueue_ResumeInterrupted verifies chapters persisted in state
"processing" are picked up and finalized on startup.
*/
func TestQueue_ResumeInterrupted(t *testing.T) {
	h := newHarness()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	queue := processing.NewQueue(h.finalizer, h.chapterRepo, logger)

	pages := []string{pageID('a')}
	h.seedDraft(testToken, 7, pages...)
	h.seedChapter(42, 7, 1, testToken, pages)

	queue.Start(context.Background())
	defer queue.Stop()

	require.NoError(t, queue.ResumeInterrupted(context.Background()))

	require.Eventually(t, func() bool {
		row := h.chapterRepo.get(42)
		return row.Pages == 1 && row.ProcessingState == nil
	}, 2*time.Second, 10*time.Millisecond)
}
