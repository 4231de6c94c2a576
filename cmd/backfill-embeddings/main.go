// backfill-embeddings enqueues River embedding jobs for catalog rows that have
// no vector for the configured model, then prunes expired content cache rows.
// Run this after changing EMBEDDING_MODEL or when rows were ingested while
// embeddings were disabled. Workers in the API process execute the jobs.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"

	"github.com/interestmap/engine/internal/jobs"
	"github.com/interestmap/engine/internal/repository"
	"github.com/interestmap/engine/pkg/database"
)

const (
	defaultEmbeddingModel = "text-embedding-3-small"
	defaultMaxAttempts    = 3
	batchSize             = 500

	// Cache rows older than this are unreachable for every provider TTL
	// (the longest is the 7-day prompts TTL).
	defaultCacheRetentionHours = 168

	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load .env for consistency with the API server.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("failed to load .env file", "error", err)
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		slog.Error("DATABASE_URL is required")

		return exitFailure
	}

	embeddingModel := os.Getenv("EMBEDDING_MODEL")
	if embeddingModel == "" {
		embeddingModel = defaultEmbeddingModel
	}

	maxAttempts := getEnvAsInt("EMBEDDING_JOB_MAX_ATTEMPTS", defaultMaxAttempts)
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	ctx := context.Background()

	db, err := database.NewPostgresPool(ctx, databaseURL, database.WithAfterConnect(pgxvec.RegisterTypes))
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	// Insert-only client: no queues, no workers. The API process works the jobs.
	riverClient, err := river.NewClient(riverpgxv5.New(db), &river.Config{})
	if err != nil {
		slog.Error("Failed to create River client", "error", err)

		return exitFailure
	}

	catalogRepo := repository.NewCatalogRepository(db)

	enqueued := 0

	for {
		ids, err := catalogRepo.ListIDsMissingEmbeddings(ctx, embeddingModel, batchSize)
		if err != nil {
			slog.Error("Failed to list rows missing embeddings", "error", err)

			return exitFailure
		}

		if len(ids) == 0 {
			break
		}

		inserted := 0

		for _, id := range ids {
			opts := &river.InsertOpts{
				MaxAttempts: maxAttempts,
				UniqueOpts:  river.UniqueOpts{ByArgs: true},
			}

			result, err := riverClient.Insert(ctx, jobs.ContentEmbeddingArgs{CatalogRowID: id}, opts)
			if err != nil {
				slog.Error("Failed to enqueue embedding job", "catalog_row_id", id, "error", err)

				return exitFailure
			}

			if !result.UniqueSkippedAsDuplicate {
				inserted++
			}
		}

		enqueued += inserted

		// Every id in this page already has a pending job; stop rather than
		// spin on rows whose jobs have not completed yet.
		if inserted == 0 {
			break
		}

		if len(ids) < batchSize {
			break
		}
	}

	slog.Info("Backfill complete", "enqueued", enqueued, "model", embeddingModel)

	// Housekeeping: drop content cache rows no TTL can reach anymore. A
	// failure here never fails the backfill.
	retentionHours := getEnvAsInt("CONTENT_CACHE_RETENTION_HOURS", defaultCacheRetentionHours)
	if retentionHours > 0 {
		cutoff := time.Now().Add(-time.Duration(retentionHours) * time.Hour)

		cacheRepo := repository.NewContentCacheRepository(db)

		deleted, err := cacheRepo.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			slog.Warn("Failed to prune content cache", "error", err)
		} else {
			slog.Info("Content cache pruned", "deleted", deleted, "retention_hours", retentionHours)
		}
	}

	fmt.Printf("Enqueued %d embedding job(s).\n", enqueued)

	return exitSuccess
}

func getEnvAsInt(key string, defaultValue int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultValue
	}

	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}

	return n
}
