package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/interestmap/engine/internal/ai"
	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/observability"
	"github.com/interestmap/engine/pkg/cache"
)

const (
	// EmbeddingTextCacheSize bounds the in-process embedding LRU.
	EmbeddingTextCacheSize = 128

	embeddingTextCacheName = "embedding_texts"
)

// EmbeddingsRepository provides the vector persistence the store needs.
type EmbeddingsRepository interface {
	Upsert(ctx context.Context, ownerType, ownerID, model string, embedding []float32) error
	ListByOwners(ctx context.Context, ownerType string, ownerIDs []string, model string) (map[string][]float32, error)
}

// EmbeddingStore lazily computes and persists vectors for interests and
// catalog rows. Persisted vectors are reused; only missing ones are computed,
// in one batch API call, and written back (idempotent and incremental). An
// in-process LRU keyed by model:text fronts the API, independent from the
// durable store.
type EmbeddingStore struct {
	client    ai.EmbeddingClient
	repo      EmbeddingsRepository
	textCache *cache.LoaderCache[string, []float32]
	metrics   observability.EmbeddingMetrics
	cacheMet  observability.CacheMetrics
	logger    *slog.Logger
}

// EmbeddingStoreParams configures EmbeddingStore. Client may be nil: the
// degradation path when no embedding credentials exist. Ensure* then
// silently computes nothing and reports an empty model. Metrics may be nil.
type EmbeddingStoreParams struct {
	Client       ai.EmbeddingClient
	Repo         EmbeddingsRepository
	Metrics      observability.EmbeddingMetrics
	CacheMetrics observability.CacheMetrics
	Logger       *slog.Logger
}

// NewEmbeddingStore creates an EmbeddingStore.
func NewEmbeddingStore(p EmbeddingStoreParams) (*EmbeddingStore, error) {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	textCache, err := cache.New[string, []float32](EmbeddingTextCacheSize, func(k string) string { return k })
	if err != nil {
		return nil, fmt.Errorf("create embedding text cache: %w", err)
	}

	return &EmbeddingStore{
		client:    p.Client,
		repo:      p.Repo,
		textCache: textCache,
		metrics:   p.Metrics,
		cacheMet:  p.CacheMetrics,
		logger:    logger,
	}, nil
}

// Enabled reports whether an embedding client is configured.
func (s *EmbeddingStore) Enabled() bool {
	return s.client != nil
}

// Model returns the configured embedding model name, or "" when disabled.
func (s *EmbeddingStore) Model() string {
	if s.client == nil {
		return ""
	}

	return s.client.Model()
}

// EnsureResult reports one Ensure pass: vectors keyed by owner id, how many
// had to be computed, and the model that produced them ("" when disabled).
type EnsureResult struct {
	Vectors map[string][]float32
	Missing int
	Model   string
}

// EnsureInterestEmbeddings returns vectors for the given interests, computing
// and persisting any that are missing for the configured model.
func (s *EmbeddingStore) EnsureInterestEmbeddings(
	ctx context.Context, interests []models.Interest,
) (EnsureResult, error) {
	ids := make([]string, len(interests))
	texts := make(map[string]string, len(interests))

	for i, interest := range interests {
		ids[i] = interest.ID
		texts[interest.ID] = interest.EmbeddingText()
	}

	return s.ensure(ctx, "interest", ids, texts)
}

// EnsureContentEmbeddings returns vectors for the given catalog rows,
// computing and persisting any that are missing for the configured model.
// Rows whose embedding text is empty are skipped.
func (s *EmbeddingStore) EnsureContentEmbeddings(
	ctx context.Context, rows []models.CatalogRow,
) (EnsureResult, error) {
	ids := make([]string, 0, len(rows))
	texts := make(map[string]string, len(rows))

	for _, row := range rows {
		text := row.EmbeddingText()
		if text == "" {
			continue
		}

		ids = append(ids, row.ID.String())
		texts[row.ID.String()] = text
	}

	return s.ensure(ctx, "content", ids, texts)
}

// EmbedText embeds one free-form text through the LRU (no persistence). Used
// for the query-vector fallback when no interest embeddings exist.
func (s *EmbeddingStore) EmbedText(ctx context.Context, text string) ([]float32, error) {
	if s.client == nil {
		return nil, fmt.Errorf("embed text: %w", ai.ErrEmptyInput)
	}

	cacheKey := s.client.Model() + ":" + text

	if vec, ok := s.textCache.Peek(cacheKey); ok {
		if s.cacheMet != nil {
			s.cacheMet.RecordHit(ctx, embeddingTextCacheName)
		}

		return vec, nil
	}

	vec, err := s.client.CreateEmbedding(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("embed text: %w", err)
	}

	s.textCache.Add(cacheKey, vec)

	if s.cacheMet != nil {
		s.cacheMet.RecordMiss(ctx, embeddingTextCacheName)
	}

	return vec, nil
}

// ensure is the shared lookup-then-compute path. Vectors already persisted
// for the configured model are reused as-is; missing ones are computed in one
// batch call and upserted. Vectors tagged with a different model are ignored
// (treated as stale) and recomputed; old rows stay in place.
func (s *EmbeddingStore) ensure(
	ctx context.Context, ownerType string, ids []string, texts map[string]string,
) (EnsureResult, error) {
	if s.client == nil {
		return EnsureResult{Vectors: map[string][]float32{}}, nil
	}

	model := s.client.Model()
	result := EnsureResult{Model: model}

	if s.repo == nil || len(ids) == 0 {
		result.Vectors = map[string][]float32{}

		return result, nil
	}

	stored, err := s.repo.ListByOwners(ctx, ownerType, ids, model)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("list %s embeddings: %w", ownerType, err)
	}

	result.Vectors = stored

	var (
		missingIDs   []string
		missingTexts []string
	)

	for _, id := range ids {
		if _, ok := stored[id]; ok {
			continue
		}

		cacheKey := model + ":" + texts[id]
		if vec, ok := s.textCache.Peek(cacheKey); ok {
			// In-process hit still counts as a miss against the durable
			// store, so persist it for the next process.
			result.Vectors[id] = vec
			result.Missing++

			s.persist(ctx, ownerType, id, model, vec)

			continue
		}

		missingIDs = append(missingIDs, id)
		missingTexts = append(missingTexts, texts[id])
	}

	if len(missingIDs) == 0 {
		return result, nil
	}

	vecs, err := s.client.CreateEmbeddings(ctx, missingTexts)
	if err != nil {
		return EnsureResult{}, fmt.Errorf("compute %s embeddings: %w", ownerType, err)
	}

	for i, id := range missingIDs {
		result.Vectors[id] = vecs[i]
		result.Missing++

		s.textCache.Add(model+":"+missingTexts[i], vecs[i])
		s.persist(ctx, ownerType, id, model, vecs[i])
	}

	if s.metrics != nil {
		s.metrics.RecordComputed(ctx, ownerType, int64(len(missingIDs)))
	}

	return result, nil
}

// persist upserts one vector, best effort: a failed write costs a recompute
// later, not the request.
func (s *EmbeddingStore) persist(ctx context.Context, ownerType, ownerID, model string, vec []float32) {
	if err := s.repo.Upsert(ctx, ownerType, ownerID, model, vec); err != nil {
		s.logger.Warn("embedding persist failed",
			"owner_type", ownerType, "owner_id", ownerID, "model", model, "error", err)
	}
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}

	return *s
}
