// Package repository provides pgx-backed data access for the engine's durable
// stores: the content catalog, the content cache, embeddings, interests, and
// recorded feedback.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interestmap/engine/internal/models"
)

// ErrCatalogRowNotFound is returned when no catalog row exists for the given id.
var ErrCatalogRowNotFound = errors.New("catalog row not found")

// CatalogRepository handles data access for the catalog_items table.
type CatalogRepository struct {
	db *pgxpool.Pool
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// catalogColumns is the scan list shared by every query returning full rows.
const catalogColumns = `id, provider, provider_item_id, type, title, description, url, image, meta, created_at, updated_at`

// Upsert inserts or updates one catalog row keyed by (provider,
// provider_item_id). The meta bag is replaced wholesale (most recent fetch
// wins). Returns the stored row and whether it was newly inserted.
func (r *CatalogRepository) Upsert(ctx context.Context, item *models.ContentItem) (models.CatalogRow, bool, error) {
	meta := models.CatalogRowMeta{
		ChannelTitle: item.Meta.ChannelTitle,
		PublishedAt:  item.Meta.PublishedAt,
		Language:     item.Meta.Language,
		Source:       item.Meta.Source,
		Extra:        item.Meta.Extra,
		InterestIDs:  item.InterestIDs,
	}

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return models.CatalogRow{}, false, fmt.Errorf("marshal catalog meta: %w", err)
	}

	now := time.Now()

	// xmax = 0 only holds for freshly inserted tuples, which distinguishes
	// upserted from updated without a second query.
	query := `
		INSERT INTO catalog_items (provider, provider_item_id, type, title, description, url, image, meta, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), NULLIF($6, ''), NULLIF($7, ''), $8, $9, $9)
		ON CONFLICT (provider, provider_item_id)
		DO UPDATE SET
			type = EXCLUDED.type,
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			url = EXCLUDED.url,
			image = EXCLUDED.image,
			meta = EXCLUDED.meta,
			updated_at = EXCLUDED.updated_at
		RETURNING ` + catalogColumns + `, (xmax = 0) AS inserted`

	var (
		row      models.CatalogRow
		inserted bool
	)

	err = r.db.QueryRow(ctx, query,
		item.Provider, item.ProviderItemID(), item.Type, item.Title,
		item.Description, item.URL, item.Image, metaJSON, now,
	).Scan(
		&row.ID, &row.Provider, &row.ProviderItemID, &row.Type, &row.Title,
		&row.Description, &row.URL, &row.Image, &row.Meta, &row.CreatedAt, &row.UpdatedAt,
		&inserted,
	)
	if err != nil {
		return models.CatalogRow{}, false, fmt.Errorf("catalog upsert: %w", err)
	}

	return row, inserted, nil
}

// GetByID returns the catalog row with the given surrogate id.
// Returns ErrCatalogRowNotFound when no row exists.
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (models.CatalogRow, error) {
	var row models.CatalogRow

	err := r.db.QueryRow(ctx,
		`SELECT `+catalogColumns+` FROM catalog_items WHERE id = $1`, id,
	).Scan(
		&row.ID, &row.Provider, &row.ProviderItemID, &row.Type, &row.Title,
		&row.Description, &row.URL, &row.Image, &row.Meta, &row.CreatedAt, &row.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.CatalogRow{}, ErrCatalogRowNotFound
		}

		return models.CatalogRow{}, fmt.Errorf("get catalog row: %w", err)
	}

	return row, nil
}

// ListIDsMissingEmbeddings returns ids of catalog rows with no embedding row
// for the given model, for the backfill job.
func (r *CatalogRepository) ListIDsMissingEmbeddings(ctx context.Context, model string, limit int) ([]uuid.UUID, error) {
	rows, err := r.db.Query(ctx, `
		SELECT c.id FROM catalog_items c
		WHERE NOT EXISTS (
			SELECT 1 FROM embeddings e
			WHERE e.owner_type = 'content' AND e.owner_id = c.id::text AND e.model = $1
		)
		ORDER BY c.created_at
		LIMIT $2`, model, limit)
	if err != nil {
		return nil, fmt.Errorf("list catalog ids missing embeddings: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID

	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan catalog id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating catalog ids: %w", err)
	}

	return ids, nil
}
