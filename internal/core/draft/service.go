// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package draft

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/taibuivan/yomira-media/internal/media"
	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/storage"
	"github.com/taibuivan/yomira-media/pkg/hexid"
)

// ObjectStore is the slice of the storage adapter the draft service needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	PurgePrefix(ctx context.Context, prefix string) error
}

// # Service Layer

// Service orchestrates the lifecycle of upload sessions.
type Service struct {
	draftRepo DraftRepository
	store     ObjectStore
	layout    storage.Layout
	converter media.PageConverter
	logger    *slog.Logger
}

// NewService constructs a new [Service] with its required collaborators.
func NewService(draftRepo DraftRepository, store ObjectStore, layout storage.Layout, converter media.PageConverter, logger *slog.Logger) *Service {
	return &Service{
		draftRepo: draftRepo,
		store:     store,
		layout:    layout,
		converter: converter,
		logger:    logger,
	}
}

// # Draft Operations

/*
Create opens a new upload session for a manga.

Description: Generates a random 32-hex token, derives the deterministic
storage prefix, and persists the row.

Parameters:
  - context: context.Context
  - mangaID: int64 (Owner)

Returns:
  - *Draft: The new session, timestamps populated
  - error: Persistence failure
*/
func (service *Service) Create(context context.Context, mangaID int64) (*Draft, error) {
	token := hexid.NewToken()

	draft := &Draft{
		Token:       token,
		MangaID:     mangaID,
		PagesPrefix: service.layout.DraftPrefix(mangaID, token),
	}

	if err := service.draftRepo.Create(context, draft); err != nil {
		return nil, err
	}

	service.logger.Info("draft_created",
		slog.String("token", draft.Token),
		slog.Int64("manga_id", mangaID),
	)

	return draft, nil
}

/*
Get resolves a draft by token.

Description: Malformed tokens are reported as "not found" without ever
reaching the database; they cannot match a row and must not crash.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - *Draft: Hydrated session
  - error: NotFound for malformed or unknown tokens
*/
func (service *Service) Get(context context.Context, token string) (*Draft, error) {
	if !hexid.IsToken(token) {
		return nil, apperr.NotFound("Draft")
	}
	return service.draftRepo.FindByToken(context, token)
}

/*
Touch refreshes the keep-alive timestamp of a session.

Parameters:
  - context: context.Context
  - token: string

Returns:
  - error: NotFound for malformed or unknown tokens
*/
func (service *Service) Touch(context context.Context, token string) error {
	if !hexid.IsToken(token) {
		return apperr.NotFound("Draft")
	}
	return service.draftRepo.Touch(context, token)
}

/*
UploadPage converts and stores one page image inside a draft.

Description: The image is re-encoded through the [media.PageConverter]
contract (WebP, max width 1200, quality 77), stored under a fresh random
page id, and the draft keep-alive is refreshed.

Parameters:
  - context: context.Context
  - token: string (Session)
  - data: []byte (Original image bytes)

Returns:
  - string: The new 24-hex page id
  - error: NotFound, conversion, or storage failures
*/
func (service *Service) UploadPage(context context.Context, token string, data []byte) (string, error) {
	draft, err := service.Get(context, token)
	if err != nil {
		return "", err
	}

	converted, err := service.converter.ConvertPageToWebp(context, data)
	if err != nil {
		return "", apperr.Unprocessable("Image could not be converted")
	}

	pageID := hexid.NewPageID()
	key := service.layout.DraftPageKey(draft.PagesPrefix, pageID)

	if err := service.store.Put(context, key, converted, media.ContentTypeWebp); err != nil {
		return "", apperr.StorageUnavailable(err)
	}

	if err := service.draftRepo.Touch(context, draft.Token); err != nil {
		// The page is stored; a failed keep-alive bump is not worth
		// failing the upload over.
		service.logger.Warn("draft_touch_failed_after_upload",
			slog.String("token", draft.Token),
			slog.Any("error", err),
		)
	}

	return pageID, nil
}

/*
Destroy purges a draft's storage prefix and then deletes its row.

Description: The row is only removed after the prefix purge succeeds;
deleting the row first would orphan objects with no tracking record. On a
purge failure the draft is touched instead, keeping it visible to the next
cleanup sweep or a manual retry.

Parameters:
  - context: context.Context
  - draft: *Draft

Returns:
  - error: The purge failure, if any
*/
func (service *Service) Destroy(context context.Context, draft *Draft) error {
	if err := service.store.PurgePrefix(context, draft.PagesPrefix); err != nil {
		if touchErr := service.draftRepo.Touch(context, draft.Token); touchErr != nil {
			service.logger.Warn("draft_touch_failed_after_purge_error",
				slog.String("token", draft.Token),
				slog.Any("error", touchErr),
			)
		}
		return fmt.Errorf("draft: purge %q: %w", draft.PagesPrefix, err)
	}

	return service.draftRepo.Delete(context, draft.Token)
}
