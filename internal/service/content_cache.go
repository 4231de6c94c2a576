package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/observability"
)

const contentCacheName = "content_cache"

// ContentCacheRepository provides the cache row operations the service needs.
type ContentCacheRepository interface {
	Get(ctx context.Context, provider models.Provider, requestHash string) ([]models.ContentItem, time.Time, error)
	Put(ctx context.Context, provider models.Provider, requestHash string, items []models.ContentItem) error
}

// ContentCache serves provider fetch results from the durable content cache.
// Unavailability is never an error: a missing backing store, a stale row, or
// a failed read all behave as a miss so the caller refreshes from source.
type ContentCache struct {
	repo    ContentCacheRepository
	metrics observability.CacheMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// ContentCacheParams configures ContentCache. Repo may be nil (no backing
// store, every lookup misses). Metrics may be nil. Now overrides the clock in
// tests.
type ContentCacheParams struct {
	Repo    ContentCacheRepository
	Metrics observability.CacheMetrics
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewContentCache creates a ContentCache.
func NewContentCache(p ContentCacheParams) *ContentCache {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	now := p.Now
	if now == nil {
		now = time.Now
	}

	return &ContentCache{
		repo:    p.Repo,
		metrics: p.Metrics,
		logger:  logger,
		now:     now,
	}
}

// Lookup returns the cached items for (provider, requestHash) when a row
// exists and is younger than ttl. Stale rows count as misses and are left in
// place. Each returned item gets CachedAt defaulted from the row's creation
// time when the item itself lacks one.
func (c *ContentCache) Lookup(
	ctx context.Context, provider models.Provider, requestHash string, ttl time.Duration,
) ([]models.ContentItem, bool) {
	if c.repo == nil {
		c.recordMiss(ctx)

		return nil, false
	}

	items, createdAt, err := c.repo.Get(ctx, provider, requestHash)
	if err != nil {
		// Reads degrade to misses: cache unavailability must never fail a request.
		c.logger.Warn("content cache read failed, treating as miss",
			"provider", provider, "error", err)
		c.recordMiss(ctx)

		return nil, false
	}

	if c.now().Sub(createdAt) >= ttl {
		c.recordMiss(ctx)

		return nil, false
	}

	for i := range items {
		if items[i].CachedAt == nil {
			cachedAt := createdAt
			items[i].CachedAt = &cachedAt
		}
	}

	if c.metrics != nil {
		c.metrics.RecordHit(ctx, contentCacheName)
	}

	return items, true
}

// Store persists items for (provider, requestHash), best effort. Errors are
// logged and swallowed; a failed write only costs a future refetch.
func (c *ContentCache) Store(
	ctx context.Context, provider models.Provider, requestHash string, items []models.ContentItem,
) {
	if c.repo == nil {
		return
	}

	if err := c.repo.Put(ctx, provider, requestHash, items); err != nil {
		c.logger.Warn("content cache write failed",
			"provider", provider, "items", len(items), "error", err)
	}
}

func (c *ContentCache) recordMiss(ctx context.Context) {
	if c.metrics != nil {
		c.metrics.RecordMiss(ctx, contentCacheName)
	}
}
