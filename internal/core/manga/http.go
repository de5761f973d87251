// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package manga

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for cascade deletion.
type Handler struct {
	service *Service
}

// NewHandler constructs a new cascade deletion [Handler].
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for the destructive admin endpoints.
func (handler *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Delete("/chapters/{chapterID}", handler.DeleteChapter)
	router.Delete("/manga/{mangaID}", handler.DeleteManga)
	return router
}

/*
DELETE /api/v1/admin/chapters/{chapterID}.

Description: Submits an asynchronous job deleting the chapter's stored
pages, any attached draft, and the row. The job id is returned for polling.

Response:
  - 202: Job: The queued deletion job
  - 404: Chapter not found
  - 429: Job queue full
*/
func (handler *Handler) DeleteChapter(writer http.ResponseWriter, request *http.Request) {
	chapterID, err := pathID(request, "chapterID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	job, err := handler.service.EnqueueDeleteChapter(request.Context(), chapterID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, job)
}

/*
DELETE /api/v1/admin/manga/{mangaID}.

Description: Submits an asynchronous job deleting every chapter, draft, and
stored object of the manga, then its rows. The job id is returned for
polling.

Response:
  - 202: Job: The queued deletion job
  - 404: Manga not found
  - 429: Job queue full
*/
func (handler *Handler) DeleteManga(writer http.ResponseWriter, request *http.Request) {
	mangaID, err := pathID(request, "mangaID")
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	job, err := handler.service.EnqueueDeleteManga(request.Context(), mangaID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Accepted(writer, job)
}

// pathID parses a positive integer id from the route.
func pathID(request *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(request, name), 10, 64)
	if err != nil || id < 1 {
		return 0, apperr.ValidationError("Invalid " + name)
	}
	return id, nil
}
