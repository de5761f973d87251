// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adminjobs

import (
	"context"
	"sync"
	"time"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// MemoryJobStore implements [JobStore] in process memory. It is the default
// backend for single-instance deployments.
type MemoryJobStore struct {
	mu   sync.Mutex
	jobs map[string]*Job
}

// NewMemoryJobStore creates an empty in-memory job store.
func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: map[string]*Job{}}
}

// Save upserts a job record and prunes expired terminal records.
func (store *MemoryJobStore) Save(_ context.Context, job *Job) error {
	store.mu.Lock()
	defer store.mu.Unlock()

	clone := *job
	store.jobs[job.ID] = &clone
	store.prune()
	return nil
}

// Find returns the job with the given id, or NotFound once pruned.
func (store *MemoryJobStore) Find(_ context.Context, id string) (*Job, error) {
	store.mu.Lock()
	defer store.mu.Unlock()

	job, ok := store.jobs[id]
	if !ok {
		return nil, apperr.NotFound("Job")
	}
	clone := *job
	return &clone, nil
}

// prune drops terminal jobs past the retention window. Caller holds the lock.
func (store *MemoryJobStore) prune() {
	cutoff := time.Now().Add(-constants.AdminJobRetention)
	for id, job := range store.jobs {
		if job.IsTerminal() && job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			delete(store.jobs, id)
		}
	}
}
