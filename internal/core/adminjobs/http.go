// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adminjobs

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/yomira-media/internal/platform/respond"
)

// # Handler Implementation

// Handler implements the HTTP layer for admin job status polling.
type Handler struct {
	runner *Runner
}

// NewHandler constructs a new job status [Handler].
func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

// Routes returns the router for job status endpoints.
func (handler *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Get("/{jobID}", handler.GetJob)
	return router
}

/*
GET /api/v1/admin/jobs/{jobID}.

Description: Returns the status record of an asynchronous admin job.
Finished jobs stay pollable for the retention window and then expire.

Response:
  - 200: Job: Status record
  - 404: Unknown, malformed, or expired job id
*/
func (handler *Handler) GetJob(writer http.ResponseWriter, request *http.Request) {
	jobID := chi.URLParam(request, "jobID")

	job, err := handler.runner.Find(request.Context(), jobID)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, job)
}
