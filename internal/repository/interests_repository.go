package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interestmap/engine/internal/models"
)

// InterestsRepository reads the externally owned interests table. The engine
// never writes it; the interest-map product does.
type InterestsRepository struct {
	db *pgxpool.Pool
}

// NewInterestsRepository creates a new interests repository.
func NewInterestsRepository(db *pgxpool.Pool) *InterestsRepository {
	return &InterestsRepository{db: db}
}

// ListByIDs returns the interests with the given ids, in id order. Unknown ids
// are silently absent from the result.
func (r *InterestsRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Interest, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, title, COALESCE(cluster, ''), COALESCE(synonyms, '{}')
		FROM interests WHERE id = ANY($1)
		ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list interests: %w", err)
	}
	defer rows.Close()

	var interests []models.Interest

	for rows.Next() {
		var interest models.Interest
		if err := rows.Scan(&interest.ID, &interest.Title, &interest.Cluster, &interest.Synonyms); err != nil {
			return nil, fmt.Errorf("scan interest: %w", err)
		}

		interests = append(interests, interest)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating interests: %w", err)
	}

	return interests, nil
}
