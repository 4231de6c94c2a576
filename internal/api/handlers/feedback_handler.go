package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/interestmap/engine/internal/api/response"
	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/service"
)

// FeedbackRecorder stores one feedback event.
type FeedbackRecorder interface {
	Record(ctx context.Context, req models.RecordFeedbackRequest) (models.Feedback, error)
}

// FeedbackHandler handles feedback submission.
type FeedbackHandler struct {
	service FeedbackRecorder
	logger  *slog.Logger
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackRecorder, logger *slog.Logger) *FeedbackHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedbackHandler{service: service, logger: logger}
}

// Create handles POST /v1/feedback. Recording is fire-and-forget: malformed
// payloads are rejected, but a store failure is logged and the caller still
// gets 202.
func (h *FeedbackHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RecordFeedbackRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if _, err := h.service.Record(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrFeedbackContentIDRequired),
			errors.Is(err, service.ErrFeedbackInvalidProvider),
			errors.Is(err, service.ErrFeedbackInvalidValue):
			response.RespondUnprocessableEntity(w, err.Error())

			return
		default:
			h.logger.WarnContext(r.Context(), "failed to record feedback",
				"content_id", req.ContentID, "error", err)
		}
	}

	response.RespondJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
