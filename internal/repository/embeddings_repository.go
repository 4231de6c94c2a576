package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

// Embedding owner types. Interests and catalog rows share one table,
// discriminated by owner_type; owner_id is the owner's id as text.
const (
	EmbeddingOwnerInterest = "interest"
	EmbeddingOwnerContent  = "content"
)

// ErrEmbeddingNotFound is returned when no embedding row exists for the given owner and model.
var ErrEmbeddingNotFound = errors.New("embedding not found for owner and model")

// EmbeddingsRepository handles data access for the embeddings table.
type EmbeddingsRepository struct {
	db *pgxpool.Pool
}

// NewEmbeddingsRepository creates a new embeddings repository.
func NewEmbeddingsRepository(db *pgxpool.Pool) *EmbeddingsRepository {
	return &EmbeddingsRepository{db: db}
}

// Upsert inserts or updates the embedding for (owner_type, owner_id, model).
// Uses halfvec storage (2 bytes per dimension); pgvector-go converts float32
// to float16 when encoding. Last write wins; vectors are idempotent functions
// of their input text, so concurrent upserts are safe without locking.
func (r *EmbeddingsRepository) Upsert(
	ctx context.Context, ownerType, ownerID, model string, embedding []float32,
) error {
	vec := pgvector.NewHalfVector(embedding)
	now := time.Now()

	_, err := r.db.Exec(ctx, `
		INSERT INTO embeddings (owner_type, owner_id, model, embedding, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $5)
		ON CONFLICT (owner_type, owner_id, model)
		DO UPDATE SET embedding = EXCLUDED.embedding, updated_at = $5`,
		ownerType, ownerID, model, vec, now,
	)
	if err != nil {
		return fmt.Errorf("embeddings upsert: %w", err)
	}

	return nil
}

// GetByOwner returns the stored embedding for the given owner and model.
// Returns ErrEmbeddingNotFound when no row exists.
func (r *EmbeddingsRepository) GetByOwner(
	ctx context.Context, ownerType, ownerID, model string,
) ([]float32, error) {
	var vec pgvector.HalfVector

	err := r.db.QueryRow(ctx,
		`SELECT embedding FROM embeddings WHERE owner_type = $1 AND owner_id = $2 AND model = $3`,
		ownerType, ownerID, model,
	).Scan(&vec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEmbeddingNotFound
		}

		return nil, fmt.Errorf("get embedding: %w", err)
	}

	return vec.Slice(), nil
}

// ListByOwners returns the stored embeddings for the given owners and model,
// keyed by owner id. Owners with no row for the model are simply absent:
// vectors tagged with a different model are not candidates (treated as stale).
func (r *EmbeddingsRepository) ListByOwners(
	ctx context.Context, ownerType string, ownerIDs []string, model string,
) (map[string][]float32, error) {
	if len(ownerIDs) == 0 {
		return map[string][]float32{}, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT owner_id, embedding FROM embeddings
		WHERE owner_type = $1 AND owner_id = ANY($2) AND model = $3`,
		ownerType, ownerIDs, model)
	if err != nil {
		return nil, fmt.Errorf("list embeddings: %w", err)
	}
	defer rows.Close()

	vectors := make(map[string][]float32, len(ownerIDs))

	for rows.Next() {
		var (
			ownerID string
			vec     pgvector.HalfVector
		)

		if err := rows.Scan(&ownerID, &vec); err != nil {
			return nil, fmt.Errorf("scan embedding: %w", err)
		}

		vectors[ownerID] = vec.Slice()
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating embeddings: %w", err)
	}

	return vectors, nil
}
