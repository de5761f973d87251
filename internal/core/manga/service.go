// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/taibuivan/yomira-media/internal/core/adminjobs"
	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/storage"
)

// ObjectStore is the slice of the storage adapter cascade deletion needs.
type ObjectStore interface {
	PurgePrefix(ctx context.Context, prefix string) error
}

// # Service Layer

// Service implements cascade deletion of chapters and manga.
type Service struct {
	mangaRepo   MangaRepository
	chapterRepo chapter.ChapterRepository
	draftRepo   draft.DraftRepository
	store       ObjectStore
	layout      storage.Layout
	runner      *adminjobs.Runner
	logger      *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(
	mangaRepo MangaRepository,
	chapterRepo chapter.ChapterRepository,
	draftRepo draft.DraftRepository,
	store ObjectStore,
	layout storage.Layout,
	runner *adminjobs.Runner,
	logger *slog.Logger,
) *Service {
	return &Service{
		mangaRepo:   mangaRepo,
		chapterRepo: chapterRepo,
		draftRepo:   draftRepo,
		store:       store,
		layout:      layout,
		runner:      runner,
		logger:      logger,
	}
}

// # Asynchronous Entry Points

/*
EnqueueDeleteChapter validates the target and submits an async deletion job.

Parameters:
  - context: context.Context
  - chapterID: int64

Returns:
  - *adminjobs.Job: The queued job, for status polling
  - error: NotFound, or a full job queue
*/
func (service *Service) EnqueueDeleteChapter(ctx context.Context, chapterID int64) (*adminjobs.Job, error) {
	if _, err := service.chapterRepo.FindByID(ctx, chapterID); err != nil {
		return nil, err
	}

	return service.runner.Submit(ctx, adminjobs.KindDeleteChapter, chapterID, func(taskContext context.Context) error {
		return service.DeleteChapter(taskContext, chapterID)
	})
}

/*
EnqueueDeleteManga validates the target and submits an async deletion job.

Parameters:
  - context: context.Context
  - mangaID: int64

Returns:
  - *adminjobs.Job: The queued job, for status polling
  - error: NotFound, or a full job queue
*/
func (service *Service) EnqueueDeleteManga(ctx context.Context, mangaID int64) (*adminjobs.Job, error) {
	if _, err := service.mangaRepo.FindByID(ctx, mangaID); err != nil {
		return nil, err
	}

	return service.runner.Submit(ctx, adminjobs.KindDeleteManga, mangaID, func(taskContext context.Context) error {
		return service.DeleteManga(taskContext, mangaID)
	})
}

// # Cascade Deletion

/*
DeleteChapter removes one chapter: its published objects, any draft attached
to an in-flight finalize, and finally the row.

Description: Storage is purged before the row goes away. If a purge fails
the row survives, so the objects stay discoverable for a retry.

Parameters:
  - context: context.Context
  - chapterID: int64

Returns:
  - error: NotFound, or the first purge failure
*/
func (service *Service) DeleteChapter(context context.Context, chapterID int64) error {
	row, err := service.chapterRepo.FindByID(context, chapterID)
	if err != nil {
		return err
	}

	if row.PagesPrefix != nil && *row.PagesPrefix != "" {
		if err := service.store.PurgePrefix(context, *row.PagesPrefix); err != nil {
			return fmt.Errorf("manga: purge chapter prefix %q: %w", *row.PagesPrefix, err)
		}
	}

	// A finalize claimed on this chapter references a draft; take it along.
	if row.ProcessingDraftToken != nil {
		if err := service.destroyDraftByToken(context, *row.ProcessingDraftToken); err != nil {
			return err
		}
	}

	if err := service.chapterRepo.Delete(context, chapterID); err != nil {
		return err
	}

	service.logger.Info("chapter_deleted",
		slog.Int64("chapter_id", chapterID),
		slog.Int64("manga_id", row.MangaID),
	)
	return nil
}

/*
DeleteManga removes a manga and everything beneath it: published chapters,
draft uploads, drifted prefixes outside the canonical roots, and the rows.

Description: The two canonical roots are purged wholesale. Chapter and
draft prefixes that moved outside those roots (layout migrations, renames)
are purged individually. The manga row is deleted last; chapter and draft
rows cascade with it.

Parameters:
  - context: context.Context
  - mangaID: int64

Returns:
  - error: NotFound, or the first purge failure
*/
func (service *Service) DeleteManga(context context.Context, mangaID int64) error {
	if _, err := service.mangaRepo.FindByID(context, mangaID); err != nil {
		return err
	}

	chapters, err := service.chapterRepo.ListByManga(context, mangaID)
	if err != nil {
		return err
	}
	drafts, err := service.draftRepo.ListByManga(context, mangaID)
	if err != nil {
		return err
	}

	mangaRoot := service.layout.MangaRoot(mangaID)
	tmpRoot := service.layout.MangaTmpRoot(mangaID)

	if err := service.store.PurgePrefix(context, mangaRoot); err != nil {
		return fmt.Errorf("manga: purge root %q: %w", mangaRoot, err)
	}
	if err := service.store.PurgePrefix(context, tmpRoot); err != nil {
		return fmt.Errorf("manga: purge tmp root %q: %w", tmpRoot, err)
	}

	for _, row := range chapters {
		if row.PagesPrefix == nil || underRoot(*row.PagesPrefix, mangaRoot) {
			continue
		}
		if err := service.store.PurgePrefix(context, *row.PagesPrefix); err != nil {
			return fmt.Errorf("manga: purge drifted chapter prefix %q: %w", *row.PagesPrefix, err)
		}
	}

	for _, session := range drafts {
		if underRoot(session.PagesPrefix, tmpRoot) {
			continue
		}
		if err := service.store.PurgePrefix(context, session.PagesPrefix); err != nil {
			return fmt.Errorf("manga: purge drifted draft prefix %q: %w", session.PagesPrefix, err)
		}
	}

	if err := service.mangaRepo.Delete(context, mangaID); err != nil {
		return err
	}

	service.logger.Info("manga_deleted",
		slog.Int64("manga_id", mangaID),
		slog.Int("chapters", len(chapters)),
		slog.Int("drafts", len(drafts)),
	)
	return nil
}

// destroyDraftByToken purges and deletes one draft, tolerating a row that
// is already gone.
func (service *Service) destroyDraftByToken(context context.Context, token string) error {
	session, err := service.draftRepo.FindByToken(context, token)
	if err != nil {
		return nil
	}

	if err := service.store.PurgePrefix(context, session.PagesPrefix); err != nil {
		return fmt.Errorf("manga: purge draft prefix %q: %w", session.PagesPrefix, err)
	}
	return service.draftRepo.Delete(context, token)
}

// underRoot reports whether prefix equals root or lives beneath it.
func underRoot(prefix, root string) bool {
	return prefix == root || strings.HasPrefix(prefix, root+"/")
}
