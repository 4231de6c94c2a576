package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/interestmap/engine/internal/jobs"
	"github.com/interestmap/engine/internal/models"
)

// CatalogRepository provides the catalog row operations the service needs.
type CatalogRepository interface {
	Upsert(ctx context.Context, item *models.ContentItem) (models.CatalogRow, bool, error)
}

// EmbeddingJobInserter enqueues background embedding jobs. Satisfied by
// river.Client; a nil inserter disables the async warm path.
type EmbeddingJobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// CatalogService upserts fetched content items into the durable catalog,
// deduplicating on (provider, provider_item_id).
type CatalogService struct {
	repo           CatalogRepository
	jobInserter    EmbeddingJobInserter
	jobMaxAttempts int
	logger         *slog.Logger
}

// CatalogServiceParams configures CatalogService. JobInserter may be nil
// (no background embedding jobs; the engine still embeds synchronously).
type CatalogServiceParams struct {
	Repo           CatalogRepository
	JobInserter    EmbeddingJobInserter
	JobMaxAttempts int
	Logger         *slog.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(p CatalogServiceParams) *CatalogService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxAttempts := p.JobMaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}

	return &CatalogService{
		repo:           p.Repo,
		jobInserter:    p.JobInserter,
		jobMaxAttempts: maxAttempts,
		logger:         logger,
	}
}

// IngestResult reports one ingestion pass.
type IngestResult struct {
	Rows     []models.CatalogRow
	Upserted int
	Updated  int
}

// Ingest upserts items into the catalog. Ingesting the same item twice yields
// one row, most recent meta winning. Any store error aborts the pass: without
// catalog rows nothing downstream has an id to key embeddings against, so the
// caller falls back to the legacy path.
func (s *CatalogService) Ingest(ctx context.Context, items []models.ContentItem) (IngestResult, error) {
	result := IngestResult{Rows: make([]models.CatalogRow, 0, len(items))}

	for i := range items {
		row, inserted, err := s.repo.Upsert(ctx, &items[i])
		if err != nil {
			return IngestResult{}, fmt.Errorf("ingest item %q: %w", items[i].ID, err)
		}

		result.Rows = append(result.Rows, row)

		if inserted {
			result.Upserted++
			s.enqueueEmbeddingJob(ctx, row)
		} else {
			result.Updated++
		}
	}

	return result, nil
}

// enqueueEmbeddingJob schedules async embedding for a newly inserted row so
// vectors are usually warm before the next request needs them. Best effort:
// the synchronous path computes anything still missing.
func (s *CatalogService) enqueueEmbeddingJob(ctx context.Context, row models.CatalogRow) {
	if s.jobInserter == nil {
		return
	}

	opts := &river.InsertOpts{
		MaxAttempts: s.jobMaxAttempts,
		UniqueOpts:  river.UniqueOpts{ByArgs: true},
	}

	if _, err := s.jobInserter.Insert(ctx, jobs.ContentEmbeddingArgs{CatalogRowID: row.ID}, opts); err != nil {
		s.logger.Warn("embedding job enqueue failed",
			"catalog_row_id", row.ID, "error", err)
	}
}
