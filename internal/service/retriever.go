package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/interestmap/engine/internal/models"
)

// ErrNoQueryVector is returned when neither interest embeddings nor the
// title-based fallback produced a query vector. The engine falls back to the
// legacy path.
var ErrNoQueryVector = errors.New("no query vector could be constructed")

// retrievalFloor is the minimum candidate breadth handed to the reranker and
// diversity selector, so they have room to discard without starving the list.
const retrievalFloor = 60

// ScoredRow is a catalog row with its retrieval (later: final) score.
type ScoredRow struct {
	Row   models.CatalogRow
	Score float64
}

// CosineSimilarity returns the cosine similarity of two vectors over their
// shared prefix length when dimensions differ. Similarity against an all-zero
// or empty vector is 0; there is no division by zero.
func CosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}

	if n == 0 {
		return 0
	}

	var dot, normA, normB float64

	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// Retriever ranks catalog rows against a query vector derived from the user's
// interest embeddings.
type Retriever struct {
	store  *EmbeddingStore
	logger *slog.Logger
}

// NewRetriever creates a Retriever.
func NewRetriever(store *EmbeddingStore, logger *slog.Logger) *Retriever {
	if logger == nil {
		logger = slog.Default()
	}

	return &Retriever{store: store, logger: logger}
}

// QueryVector builds the query vector: the arithmetic mean of the selected
// interests' embedding vectors. When none exist, it falls back to embedding
// the concatenation of interest titles directly. Returns ErrNoQueryVector
// when both paths fail.
func (r *Retriever) QueryVector(
	ctx context.Context, interests []models.Interest, interestVecs map[string][]float32,
) ([]float32, error) {
	var (
		sum   []float64
		count int
	)

	for _, interest := range interests {
		vec, ok := interestVecs[interest.ID]
		if !ok || len(vec) == 0 {
			continue
		}

		if sum == nil {
			sum = make([]float64, len(vec))
		}

		n := len(sum)
		if len(vec) < n {
			n = len(vec)
		}

		for i := 0; i < n; i++ {
			sum[i] += float64(vec[i])
		}

		count++
	}

	if count > 0 {
		mean := make([]float32, len(sum))
		for i := range sum {
			mean[i] = float32(sum[i] / float64(count))
		}

		return mean, nil
	}

	titles := make([]string, 0, len(interests))
	for _, interest := range interests {
		titles = append(titles, interest.Title)
	}

	query := strings.TrimSpace(strings.Join(titles, ", "))
	if query == "" {
		return nil, ErrNoQueryVector
	}

	r.logger.Debug("no interest embeddings, falling back to title embedding", "query", query)

	vec, err := r.store.EmbedText(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNoQueryVector, err)
	}

	return vec, nil
}

// Retrieve cosine-ranks rows against queryVec and returns the top candidates,
// at most max(limit*3, 60) of them. Rows without a vector are skipped; rows
// whose provider is filtered out are skipped. Sort is descending by score
// with item-id tiebreak for deterministic output.
func (r *Retriever) Retrieve(
	queryVec []float32,
	contentVecs map[string][]float32,
	rows []models.CatalogRow,
	providerFilter map[models.Provider]bool,
	limit int,
) []ScoredRow {
	breadth := limit * 3
	if breadth < retrievalFloor {
		breadth = retrievalFloor
	}

	scored := make([]ScoredRow, 0, len(rows))

	for _, row := range rows {
		if providerFilter != nil && !providerFilter[row.Provider] {
			continue
		}

		vec, ok := contentVecs[row.ID.String()]
		if !ok {
			continue
		}

		scored = append(scored, ScoredRow{Row: row, Score: CosineSimilarity(queryVec, vec)})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}

		return scored[i].Row.ItemID() < scored[j].Row.ItemID()
	})

	if len(scored) > breadth {
		scored = scored[:breadth]
	}

	return scored
}
