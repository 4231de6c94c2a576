package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/interestmap/engine/internal/models"
)

// FeedbackRepository handles data access for the feedback table.
type FeedbackRepository struct {
	db *pgxpool.Pool
}

// NewFeedbackRepository creates a new feedback repository.
func NewFeedbackRepository(db *pgxpool.Pool) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

// Insert records one feedback event.
func (r *FeedbackRepository) Insert(ctx context.Context, req *models.RecordFeedbackRequest) (models.Feedback, error) {
	var fb models.Feedback

	err := r.db.QueryRow(ctx, `
		INSERT INTO feedback (content_id, provider, type, interest_ids, value, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, content_id, provider, type, interest_ids, value, created_at`,
		req.ContentID, req.Provider, req.Type, req.InterestIDs, req.Value, time.Now(),
	).Scan(&fb.ID, &fb.ContentID, &fb.Provider, &fb.Type, &fb.InterestIDs, &fb.Value, &fb.CreatedAt)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("insert feedback: %w", err)
	}

	return fb, nil
}
