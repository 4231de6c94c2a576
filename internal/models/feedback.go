package models

import (
	"time"

	"github.com/google/uuid"
)

// Feedback values: +1 for a positive action (save, like), -1 for a negative
// one (hide, dismiss).
const (
	FeedbackPositive = 1
	FeedbackNegative = -1
)

// Feedback is one user action on a recommended item, recorded fire-and-forget.
type Feedback struct {
	ID          uuid.UUID   `json:"id"`
	ContentID   string      `json:"content_id"`
	Provider    Provider    `json:"provider"`
	Type        ContentType `json:"type"`
	InterestIDs []string    `json:"interest_ids,omitempty"`
	Value       int         `json:"value"`
	CreatedAt   time.Time   `json:"created_at"`
}

// RecordFeedbackRequest is the payload accepted by the feedback endpoint.
type RecordFeedbackRequest struct {
	ContentID   string      `json:"content_id"`
	Provider    Provider    `json:"provider"`
	Type        ContentType `json:"type"`
	InterestIDs []string    `json:"interest_ids,omitempty"`
	Value       int         `json:"value"`
}
