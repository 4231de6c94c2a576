package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/riverqueue/river"

	"github.com/interestmap/engine/internal/ai"
	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/observability"
	"github.com/interestmap/engine/internal/repository"
)

// CatalogRowGetter loads one catalog row by surrogate id.
type CatalogRowGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (models.CatalogRow, error)
}

// EmbeddingRowStore reads and writes persisted vectors.
type EmbeddingRowStore interface {
	GetByOwner(ctx context.Context, ownerType, ownerID, model string) ([]float32, error)
	Upsert(ctx context.Context, ownerType, ownerID, model string, embedding []float32) error
}

// ContentEmbeddingWorker warms the embedding for a freshly ingested catalog
// row so the next request's synchronous pass finds it already persisted. A
// missing row, an empty embedding text, or an already-present vector
// completes without work.
type ContentEmbeddingWorker struct {
	river.WorkerDefaults[ContentEmbeddingArgs]

	catalog    CatalogRowGetter
	embeddings EmbeddingRowStore
	client     ai.EmbeddingClient
	metrics    observability.EmbeddingMetrics
	logger     *slog.Logger
}

// ContentEmbeddingWorkerParams configures ContentEmbeddingWorker. Metrics may
// be nil.
type ContentEmbeddingWorkerParams struct {
	Catalog    CatalogRowGetter
	Embeddings EmbeddingRowStore
	Client     ai.EmbeddingClient
	Metrics    observability.EmbeddingMetrics
	Logger     *slog.Logger
}

// NewContentEmbeddingWorker creates a ContentEmbeddingWorker.
func NewContentEmbeddingWorker(p ContentEmbeddingWorkerParams) *ContentEmbeddingWorker {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &ContentEmbeddingWorker{
		catalog:    p.Catalog,
		embeddings: p.Embeddings,
		client:     p.Client,
		metrics:    p.Metrics,
		logger:     logger,
	}
}

// Work implements river.Worker.
func (w *ContentEmbeddingWorker) Work(ctx context.Context, job *river.Job[ContentEmbeddingArgs]) error {
	rowID := job.Args.CatalogRowID

	row, err := w.catalog.GetByID(ctx, rowID)
	if err != nil {
		if errors.Is(err, repository.ErrCatalogRowNotFound) {
			// The row was deleted between enqueue and execution; nothing to embed.
			w.recordOutcome(ctx, "skipped")

			return nil
		}

		w.recordOutcome(ctx, "failed")

		return fmt.Errorf("load catalog row %s: %w", rowID, err)
	}

	text := row.EmbeddingText()
	if text == "" {
		w.recordOutcome(ctx, "skipped")

		return nil
	}

	model := w.client.Model()

	_, err = w.embeddings.GetByOwner(ctx, repository.EmbeddingOwnerContent, rowID.String(), model)
	if err == nil {
		w.recordOutcome(ctx, "skipped")

		return nil
	}

	if !errors.Is(err, repository.ErrEmbeddingNotFound) {
		w.recordOutcome(ctx, "failed")

		return fmt.Errorf("check embedding for %s: %w", rowID, err)
	}

	vec, err := w.client.CreateEmbedding(ctx, text)
	if err != nil {
		w.recordOutcome(ctx, "failed")

		return fmt.Errorf("embed catalog row %s: %w", rowID, err)
	}

	if err := w.embeddings.Upsert(ctx, repository.EmbeddingOwnerContent, rowID.String(), model, vec); err != nil {
		w.recordOutcome(ctx, "failed")

		return fmt.Errorf("persist embedding for %s: %w", rowID, err)
	}

	if w.metrics != nil {
		w.metrics.RecordComputed(ctx, repository.EmbeddingOwnerContent, 1)
	}

	w.logger.Debug("content embedding warmed", "catalog_row_id", rowID, "model", model)
	w.recordOutcome(ctx, "completed")

	return nil
}

func (w *ContentEmbeddingWorker) recordOutcome(ctx context.Context, status string) {
	if w.metrics != nil {
		w.metrics.RecordJobOutcome(ctx, status)
	}
}
