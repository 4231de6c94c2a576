package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interestmap/engine/internal/ai"
	"github.com/interestmap/engine/internal/models"
)

func TestCosineSimilarity(t *testing.T) {
	t.Run("identical vectors score 1", func(t *testing.T) {
		v := []float32{0.3, 0.4, 0.5}

		assert.InDelta(t, 1.0, CosineSimilarity(v, v), 1e-6)
	})

	t.Run("orthogonal vectors score 0", func(t *testing.T) {
		assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	})

	t.Run("opposite vectors score -1", func(t *testing.T) {
		assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	})

	t.Run("zero vector scores 0", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
	})

	t.Run("empty vector scores 0", func(t *testing.T) {
		assert.Zero(t, CosineSimilarity(nil, []float32{1, 2, 3}))
	})

	t.Run("mismatched dimensions use the shared prefix", func(t *testing.T) {
		a := []float32{1, 0}
		b := []float32{1, 0, 0.9, 0.9}

		assert.InDelta(t, CosineSimilarity(a, b), CosineSimilarity(b, a), 1e-6)
	})
}

func newTestRetriever(t *testing.T) *Retriever {
	t.Helper()

	store, err := NewEmbeddingStore(EmbeddingStoreParams{
		Client: ai.NewMockEmbeddingClientWithDimensions(8),
	})
	require.NoError(t, err)

	return NewRetriever(store, nil)
}

func TestRetriever_QueryVector(t *testing.T) {
	interests := []models.Interest{
		{ID: "go", Title: "Go"},
		{ID: "k8s", Title: "Kubernetes"},
	}

	t.Run("mean of present interest vectors", func(t *testing.T) {
		r := newTestRetriever(t)

		vecs := map[string][]float32{
			"go":  {1, 0, 0},
			"k8s": {0, 1, 0},
		}

		query, err := r.QueryVector(context.Background(), interests, vecs)
		require.NoError(t, err)

		assert.InDelta(t, 0.5, query[0], 1e-6)
		assert.InDelta(t, 0.5, query[1], 1e-6)
		assert.InDelta(t, 0.0, query[2], 1e-6)
	})

	t.Run("missing vectors are excluded from the mean", func(t *testing.T) {
		r := newTestRetriever(t)

		vecs := map[string][]float32{"go": {1, 0, 0}}

		query, err := r.QueryVector(context.Background(), interests, vecs)
		require.NoError(t, err)

		assert.InDelta(t, 1.0, query[0], 1e-6)
	})

	t.Run("falls back to embedding concatenated titles", func(t *testing.T) {
		r := newTestRetriever(t)

		query, err := r.QueryVector(context.Background(), interests, nil)
		require.NoError(t, err)
		assert.Len(t, query, 8)
	})

	t.Run("no interests and no vectors returns ErrNoQueryVector", func(t *testing.T) {
		r := newTestRetriever(t)

		_, err := r.QueryVector(context.Background(), nil, nil)
		assert.ErrorIs(t, err, ErrNoQueryVector)
	})

	t.Run("fallback failure wraps ErrNoQueryVector", func(t *testing.T) {
		store, err := NewEmbeddingStore(EmbeddingStoreParams{})
		require.NoError(t, err)

		r := NewRetriever(store, nil)

		_, err = r.QueryVector(context.Background(), interests, nil)
		assert.ErrorIs(t, err, ErrNoQueryVector)
	})
}

func TestRetriever_Retrieve(t *testing.T) {
	r := newTestRetriever(t)

	rowWithVec := func(provider models.Provider, nativeID string, vec []float32, vecs map[string][]float32) models.CatalogRow {
		row := models.CatalogRow{
			ID:             uuid.New(),
			Provider:       provider,
			ProviderItemID: nativeID,
			Title:          nativeID,
		}
		if vec != nil {
			vecs[row.ID.String()] = vec
		}

		return row
	}

	t.Run("ranks by cosine similarity descending", func(t *testing.T) {
		vecs := map[string][]float32{}
		rows := []models.CatalogRow{
			rowWithVec(models.ProviderYouTube, "far", []float32{0, 1}, vecs),
			rowWithVec(models.ProviderYouTube, "near", []float32{1, 0.01}, vecs),
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows, nil, 10)
		require.Len(t, scored, 2)

		assert.Equal(t, "near", scored[0].Row.ProviderItemID)
		assert.Greater(t, scored[0].Score, scored[1].Score)
	})

	t.Run("rows without vectors are skipped", func(t *testing.T) {
		vecs := map[string][]float32{}
		rows := []models.CatalogRow{
			rowWithVec(models.ProviderBooks, "embedded", []float32{1, 0}, vecs),
			rowWithVec(models.ProviderBooks, "bare", nil, vecs),
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows, nil, 10)

		require.Len(t, scored, 1)
		assert.Equal(t, "embedded", scored[0].Row.ProviderItemID)
	})

	t.Run("provider filter applies", func(t *testing.T) {
		vecs := map[string][]float32{}
		rows := []models.CatalogRow{
			rowWithVec(models.ProviderYouTube, "y", []float32{1, 0}, vecs),
			rowWithVec(models.ProviderBooks, "b", []float32{1, 0}, vecs),
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows,
			map[models.Provider]bool{models.ProviderBooks: true}, 10)

		require.Len(t, scored, 1)
		assert.Equal(t, models.ProviderBooks, scored[0].Row.Provider)
	})

	t.Run("breadth floor keeps at least 60 candidates", func(t *testing.T) {
		vecs := map[string][]float32{}

		var rows []models.CatalogRow
		for i := 0; i < 100; i++ {
			rows = append(rows, rowWithVec(models.ProviderArticles, fmt.Sprintf("a%d", i), []float32{1, 0}, vecs))
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows, nil, 5)

		assert.Len(t, scored, 60)
	})

	t.Run("breadth scales with limit", func(t *testing.T) {
		vecs := map[string][]float32{}

		var rows []models.CatalogRow
		for i := 0; i < 100; i++ {
			rows = append(rows, rowWithVec(models.ProviderArticles, fmt.Sprintf("a%d", i), []float32{1, 0}, vecs))
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows, nil, 25)

		assert.Len(t, scored, 75)
	})

	t.Run("equal scores tie-break on item id for determinism", func(t *testing.T) {
		vecs := map[string][]float32{}
		rows := []models.CatalogRow{
			rowWithVec(models.ProviderBooks, "zzz", []float32{1, 0}, vecs),
			rowWithVec(models.ProviderBooks, "aaa", []float32{1, 0}, vecs),
		}

		scored := r.Retrieve([]float32{1, 0}, vecs, rows, nil, 10)

		require.Len(t, scored, 2)
		assert.Equal(t, "aaa", scored[0].Row.ProviderItemID)
	})
}
