// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package adminjobs runs destructive administrative operations (cascade
deletions) asynchronously, with polling-friendly status records.

Jobs are executed strictly one at a time by a single worker, so two cascade
deletions can never interleave their storage purges. Completed records are
retained for a bounded window and then pruned.
*/
package adminjobs

import (
	"strings"
	"time"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// Job states.
const (
	StateQueued  = "queued"
	StateRunning = "running"
	StateDone    = "done"
	StateFailed  = "failed"
)

// Job kinds.
const (
	KindDeleteChapter = "delete_chapter"
	KindDeleteManga   = "delete_manga"
)

// Job is the status record of one asynchronous admin operation.
type Job struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	TargetID int64  `json:"target_id"`
	State    string `json:"state"`

	// Error is the client-visible failure reason, already sanitized.
	Error string `json:"error,omitempty"`

	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j *Job) IsTerminal() bool {
	return j.State == StateDone || j.State == StateFailed
}

// sanitizeMarkers flag raw backend errors that must not reach clients.
var sanitizeMarkers = []string{"http://", "https://", "amazonaws", "x-amz", "api error", "operation error"}

/*
SanitizeError converts an execution error into a client-visible reason.

Description: Application errors carry client-safe messages already. Raw
infrastructure errors are replaced wholesale when they are overly long or
leak storage backend details (endpoints, SDK error dumps).

Parameters:
  - err: error

Returns:
  - string: Safe failure reason, empty for nil errors
*/
func SanitizeError(err error) string {
	if err == nil {
		return ""
	}

	if appErr := apperr.As(err); appErr != nil {
		return appErr.Message
	}

	message := err.Error()
	lowered := strings.ToLower(message)
	for _, marker := range sanitizeMarkers {
		if strings.Contains(lowered, marker) {
			return "storage operation failed"
		}
	}
	if len(message) > constants.AdminJobMaxErrorLen {
		return "internal error during job execution"
	}

	return message
}
