package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interestmap/engine/internal/models"
)

type mockContentCacheRepo struct {
	getFunc func(ctx context.Context, provider models.Provider, requestHash string) ([]models.ContentItem, time.Time, error)
	putFunc func(ctx context.Context, provider models.Provider, requestHash string, items []models.ContentItem) error
}

func (m *mockContentCacheRepo) Get(
	ctx context.Context, provider models.Provider, requestHash string,
) ([]models.ContentItem, time.Time, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, provider, requestHash)
	}

	return nil, time.Time{}, errors.New("not configured")
}

func (m *mockContentCacheRepo) Put(
	ctx context.Context, provider models.Provider, requestHash string, items []models.ContentItem,
) error {
	if m.putFunc != nil {
		return m.putFunc(ctx, provider, requestHash, items)
	}

	return nil
}

func TestContentCache_Lookup(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	ttl := 12 * time.Hour

	freshRepo := func(createdAt time.Time) *mockContentCacheRepo {
		return &mockContentCacheRepo{
			getFunc: func(_ context.Context, _ models.Provider, _ string) ([]models.ContentItem, time.Time, error) {
				return []models.ContentItem{{ID: "youtube:v1", Provider: models.ProviderYouTube}}, createdAt, nil
			},
		}
	}

	t.Run("fresh row is a hit", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: freshRepo(base),
			Now:  func() time.Time { return base.Add(ttl - time.Millisecond) },
		})

		items, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		require.True(t, ok)
		assert.Len(t, items, 1)
	})

	t.Run("row at exactly ttl is a miss", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: freshRepo(base),
			Now:  func() time.Time { return base.Add(ttl) },
		})

		_, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		assert.False(t, ok)
	})

	t.Run("stale row is a miss", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: freshRepo(base),
			Now:  func() time.Time { return base.Add(ttl + time.Hour) },
		})

		_, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		assert.False(t, ok)
	})

	t.Run("nil repo is a miss", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{})

		_, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		assert.False(t, ok)
	})

	t.Run("read error is a miss, not a failure", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: &mockContentCacheRepo{
				getFunc: func(_ context.Context, _ models.Provider, _ string) ([]models.ContentItem, time.Time, error) {
					return nil, time.Time{}, errors.New("connection refused")
				},
			},
		})

		_, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		assert.False(t, ok)
	})

	t.Run("cached_at defaults from row creation time", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: freshRepo(base),
			Now:  func() time.Time { return base.Add(time.Hour) },
		})

		items, ok := cache.Lookup(context.Background(), models.ProviderYouTube, "h", ttl)
		require.True(t, ok)
		require.NotNil(t, items[0].CachedAt)
		assert.Equal(t, base, *items[0].CachedAt)
	})
}

func TestContentCache_Store(t *testing.T) {
	t.Run("write error is swallowed", func(t *testing.T) {
		cache := NewContentCache(ContentCacheParams{
			Repo: &mockContentCacheRepo{
				putFunc: func(_ context.Context, _ models.Provider, _ string, _ []models.ContentItem) error {
					return errors.New("disk full")
				},
			},
		})

		assert.NotPanics(t, func() {
			cache.Store(context.Background(), models.ProviderBooks, "h", []models.ContentItem{{ID: "books:1"}})
		})
	})

	t.Run("stores through the repository", func(t *testing.T) {
		var gotHash string

		cache := NewContentCache(ContentCacheParams{
			Repo: &mockContentCacheRepo{
				putFunc: func(_ context.Context, _ models.Provider, requestHash string, items []models.ContentItem) error {
					gotHash = requestHash

					assert.Len(t, items, 2)

					return nil
				},
			},
		})

		cache.Store(context.Background(), models.ProviderBooks, "abc123",
			[]models.ContentItem{{ID: "books:1"}, {ID: "books:2"}})

		assert.Equal(t, "abc123", gotHash)
	})
}
