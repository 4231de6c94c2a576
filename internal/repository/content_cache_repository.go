package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interestmap/engine/internal/models"
)

// ErrCacheEntryNotFound is returned when no cache row exists for the given key.
var ErrCacheEntryNotFound = errors.New("content cache entry not found")

// ContentCacheRepository handles data access for the content_cache table:
// provider fetch results keyed by (provider, request_hash).
type ContentCacheRepository struct {
	db *pgxpool.Pool
}

// NewContentCacheRepository creates a new content cache repository.
func NewContentCacheRepository(db *pgxpool.Pool) *ContentCacheRepository {
	return &ContentCacheRepository{db: db}
}

// Get returns the cached items and the row's creation time for the given key.
// Freshness is the caller's concern; stale rows are returned as-is.
func (r *ContentCacheRepository) Get(
	ctx context.Context, provider models.Provider, requestHash string,
) ([]models.ContentItem, time.Time, error) {
	var (
		itemsJSON []byte
		createdAt time.Time
	)

	err := r.db.QueryRow(ctx,
		`SELECT items, created_at FROM content_cache WHERE provider = $1 AND request_hash = $2`,
		provider, requestHash,
	).Scan(&itemsJSON, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, time.Time{}, ErrCacheEntryNotFound
		}

		return nil, time.Time{}, fmt.Errorf("get cache entry: %w", err)
	}

	var items []models.ContentItem
	if err := json.Unmarshal(itemsJSON, &items); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode cached items: %w", err)
	}

	return items, createdAt, nil
}

// Put stores items for the given key, replacing any previous entry and
// resetting the row's creation time.
func (r *ContentCacheRepository) Put(
	ctx context.Context, provider models.Provider, requestHash string, items []models.ContentItem,
) error {
	itemsJSON, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode cache items: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO content_cache (provider, request_hash, items, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (provider, request_hash)
		DO UPDATE SET items = EXCLUDED.items, created_at = EXCLUDED.created_at`,
		provider, requestHash, itemsJSON, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("put cache entry: %w", err)
	}

	return nil
}

// DeleteOlderThan removes cache rows created before the cutoff; housekeeping
// for the backfill/maintenance job, never called on the request path.
func (r *ContentCacheRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM content_cache WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete stale cache entries: %w", err)
	}

	return tag.RowsAffected(), nil
}
