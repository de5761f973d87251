// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package adminjobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/yomira-media/internal/platform/apperr"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
)

// RedisJobStore implements [JobStore] using Redis, letting multiple admin
// API instances observe job status. Retention is delegated to key TTLs.
type RedisJobStore struct {
	client *redis.Client
}

// NewRedisJobStore creates a Redis-backed job store.
func NewRedisJobStore(client *redis.Client) *RedisJobStore {
	return &RedisJobStore{client: client}
}

/*
Save upserts a job record as a JSON value with the retention TTL.

Parameters:
  - context: context.Context
  - job: *Job

Returns:
  - error: Encoding or execution errors
*/
func (store *RedisJobStore) Save(context context.Context, job *Job) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("redis_admin_job_encode_failed: %w", err)
	}

	key := constants.RedisPrefixAdminJob + job.ID
	if err := store.client.Set(context, key, payload, constants.AdminJobRetention).Err(); err != nil {
		return fmt.Errorf("redis_admin_job_set_failed: %w", err)
	}

	return nil
}

/*
Find returns the job with the given id.

Parameters:
  - context: context.Context
  - id: string

Returns:
  - *Job: Status record
  - error: apperr.NotFound for unknown or expired ids
*/
func (store *RedisJobStore) Find(context context.Context, id string) (*Job, error) {
	key := constants.RedisPrefixAdminJob + id

	payload, err := store.client.Get(context, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperr.NotFound("Job")
		}
		return nil, fmt.Errorf("redis_admin_job_get_failed: %w", err)
	}

	var job Job
	if err := json.Unmarshal(payload, &job); err != nil {
		return nil, fmt.Errorf("redis_admin_job_decode_failed: %w", err)
	}

	return &job, nil
}
