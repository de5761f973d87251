// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command media is the entry point for the Yomira media storage service.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis.
//  5. Build the object storage client.
//  6. Run database migrations (idempotent).
//  7. Wire services, start the finalize queue, the admin job runner,
//     and the cleanup sweeper; resume interrupted finalizations.
//  8. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/taibuivan/yomira-media/internal/api"
	"github.com/taibuivan/yomira-media/internal/core/adminjobs"
	"github.com/taibuivan/yomira-media/internal/core/chapter"
	"github.com/taibuivan/yomira-media/internal/core/cleanup"
	"github.com/taibuivan/yomira-media/internal/core/draft"
	"github.com/taibuivan/yomira-media/internal/core/manga"
	"github.com/taibuivan/yomira-media/internal/core/processing"
	"github.com/taibuivan/yomira-media/internal/media"
	"github.com/taibuivan/yomira-media/internal/platform/config"
	"github.com/taibuivan/yomira-media/internal/platform/constants"
	"github.com/taibuivan/yomira-media/internal/platform/migration"
	pgstore "github.com/taibuivan/yomira-media/internal/platform/postgres"
	redisstore "github.com/taibuivan/yomira-media/internal/platform/redis"
	"github.com/taibuivan/yomira-media/internal/storage"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("[Yomira] media_service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis ──────────────────────────────────────────────────────────
	rdb, err := redisstore.NewClient(startupCtx, cfg.RedisURL, log)
	must(log, err, "connect to redis")
	defer func() {
		log.Info("closing redis client")
		if cerr := rdb.Close(); cerr != nil {
			log.Error("redis close error", slog.Any("error", cerr))
		}
	}()

	// ── 5. Object Storage ─────────────────────────────────────────────────
	store := storage.NewClient(cfg, log)
	layout := storage.Layout{Root: cfg.ChapterPrefix, CDNBaseURL: cfg.CDNBaseURL}

	// ── 6. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	liveness, readiness := api.NewHealthHandlers(api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
		CheckCache: func() error {
			return redisstore.Ping(context.Background(), rdb)
		},
		CheckStorage: func() error {
			return store.HealthCheck(context.Background())
		},
	}, log)

	// ── 8. Domain Wiring ──────────────────────────────────────────────────
	draftRepository := draft.NewDraftRepository(pool)
	chapterRepository := chapter.NewChapterRepository(pool)
	mangaRepository := manga.NewMangaRepository(pool)

	draftService := draft.NewService(draftRepository, store, layout, media.NopConverter{}, log)

	finalizer := processing.NewFinalizer(chapterRepository, draftService, store, layout, log)
	queue := processing.NewQueue(finalizer, chapterRepository, log)

	var jobStore adminjobs.JobStore = adminjobs.NewMemoryJobStore()
	if cfg.AdminJobStore == "redis" {
		jobStore = adminjobs.NewRedisJobStore(rdb)
	}
	runner := adminjobs.NewRunner(jobStore, log)

	mangaService := manga.NewService(mangaRepository, chapterRepository, draftRepository, store, layout, runner, log)
	sweeper := cleanup.NewSweeper(draftRepository, draftService, log)

	// ── 9. Background Workers ─────────────────────────────────────────────
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	queue.Start(workerCtx)
	runner.Start(workerCtx)
	sweeper.Start(workerCtx)

	// Chapters claimed before a crash re-enter the queue before traffic.
	must(log, queue.ResumeInterrupted(startupCtx), "resume interrupted finalizations")

	// ── 10. HTTP Server ───────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		AdminJobs: adminjobs.NewHandler(runner),
		Manga:     manga.NewHandler(mangaService),
	}

	server := api.NewServer(workerCtx, cfg, log, handlers)

	// ── 11. Graceful Shutdown ─────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	// Stop workers after HTTP so no request can enqueue into a dead queue.
	sweeper.Stop()
	runner.Stop()
	queue.Stop()

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
