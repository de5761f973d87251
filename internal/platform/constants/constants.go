// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, batch sizes, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the operational HTTP server.
  - Storage Pipeline: Draft TTLs, finalize checkpoints, sweep cadence.
  - Rate Limiting: Burst capacities and IP tracking TTLs.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "yomira-media"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Storage Pipeline

const (
	// DraftTTL is the inactivity window after which an unreferenced draft
	// becomes eligible for deletion.
	DraftTTL = 3 * time.Hour

	// CleanupInterval is the cadence of the expired-draft sweep.
	CleanupInterval = 30 * time.Minute

	// CleanupBatchSize bounds how many expired drafts one sweep handles.
	CleanupBatchSize = 40

	// ResumeBatchSize bounds how many interrupted chapters are re-enqueued
	// on process start.
	ResumeBatchSize = 60

	// FinalizeCheckpointInterval is the page-copy count between state
	// re-reads and keep-alive touches during a finalize run.
	FinalizeCheckpointInterval = 10

	// MinChapterPages and MaxChapterPages bound a single chapter submission.
	MinChapterPages = 1
	MaxChapterPages = 220

	// PagesExt is the canonical image extension for published pages.
	PagesExt = "webp"

	// ProcessingQueueCapacity is the buffered depth of the chapter queue.
	ProcessingQueueCapacity = 256
)

// # Admin Jobs

const (
	// AdminJobQueueCapacity is the buffered depth of the admin job queue.
	AdminJobQueueCapacity = 64

	// AdminJobRetention is how long finished admin jobs remain pollable.
	AdminJobRetention = 1 * time.Hour

	// AdminJobRetryAfterSeconds is the suggested wait when the queue is full.
	AdminJobRetryAfterSeconds = 10

	// AdminJobMaxErrorLen is the longest error message stored verbatim;
	// anything longer is replaced with a generic failure message.
	AdminJobMaxErrorLen = 160
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
)

// # JSON Field Identifiers

const (
	FieldError  = "error"
	FieldCode   = "code"
	FieldStatus = "status"
	FieldChecks = "checks"
)

// # Database Schemas

const (
	SchemaCore = "core"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	RedisPrefixAdminJob = "media:admin_job:"
)
