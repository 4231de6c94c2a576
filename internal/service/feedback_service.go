package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/interestmap/engine/internal/models"
)

// Feedback validation errors.
var (
	ErrFeedbackContentIDRequired = errors.New("feedback content id is required")
	ErrFeedbackInvalidProvider   = errors.New("feedback provider is invalid")
	ErrFeedbackInvalidValue      = errors.New("feedback value must be 1 or -1")
)

// FeedbackRepository provides the feedback row operations the service needs.
type FeedbackRepository interface {
	Insert(ctx context.Context, req *models.RecordFeedbackRequest) (models.Feedback, error)
}

// FeedbackService records explicit user reactions to recommended items. The
// signal is stored for later preference modelling; nothing in the serving
// path reads it yet.
type FeedbackService struct {
	repo   FeedbackRepository
	logger *slog.Logger
}

// NewFeedbackService creates a FeedbackService.
func NewFeedbackService(repo FeedbackRepository, logger *slog.Logger) *FeedbackService {
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedbackService{repo: repo, logger: logger}
}

// Record validates and stores one feedback event.
func (s *FeedbackService) Record(ctx context.Context, req models.RecordFeedbackRequest) (models.Feedback, error) {
	req.ContentID = strings.TrimSpace(req.ContentID)
	if req.ContentID == "" {
		return models.Feedback{}, ErrFeedbackContentIDRequired
	}

	if !req.Provider.Valid() {
		return models.Feedback{}, fmt.Errorf("%w: %q", ErrFeedbackInvalidProvider, req.Provider)
	}

	if req.Value != models.FeedbackPositive && req.Value != models.FeedbackNegative {
		return models.Feedback{}, ErrFeedbackInvalidValue
	}

	stored, err := s.repo.Insert(ctx, &req)
	if err != nil {
		return models.Feedback{}, fmt.Errorf("record feedback for %q: %w", req.ContentID, err)
	}

	s.logger.Debug("feedback recorded",
		"content_id", stored.ContentID, "provider", stored.Provider, "value", stored.Value)

	return stored, nil
}
