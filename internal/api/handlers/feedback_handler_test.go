package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/service"
)

type mockFeedbackRecorder struct {
	recordFunc func(ctx context.Context, req models.RecordFeedbackRequest) (models.Feedback, error)
	recorded   int
}

func (m *mockFeedbackRecorder) Record(
	ctx context.Context, req models.RecordFeedbackRequest,
) (models.Feedback, error) {
	m.recorded++

	if m.recordFunc != nil {
		return m.recordFunc(ctx, req)
	}

	return models.Feedback{ID: uuid.New(), ContentID: req.ContentID, Value: req.Value}, nil
}

func TestFeedbackHandler_Create(t *testing.T) {
	t.Run("invalid JSON returns 400", func(t *testing.T) {
		recorder := &mockFeedbackRecorder{}
		handler := NewFeedbackHandler(recorder, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/feedback", strings.NewReader("[["))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, recorder.recorded)
	})

	t.Run("validation error returns 422", func(t *testing.T) {
		handler := NewFeedbackHandler(&mockFeedbackRecorder{
			recordFunc: func(_ context.Context, _ models.RecordFeedbackRequest) (models.Feedback, error) {
				return models.Feedback{}, service.ErrFeedbackInvalidValue
			},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/feedback",
			strings.NewReader(`{"content_id": "youtube:v1", "provider": "youtube", "value": 5}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("store error is swallowed, returns 202", func(t *testing.T) {
		handler := NewFeedbackHandler(&mockFeedbackRecorder{
			recordFunc: func(_ context.Context, _ models.RecordFeedbackRequest) (models.Feedback, error) {
				return models.Feedback{}, errors.New("insert failed")
			},
		}, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/feedback",
			strings.NewReader(`{"content_id": "youtube:v1", "provider": "youtube", "value": 1}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("success returns 202", func(t *testing.T) {
		recorder := &mockFeedbackRecorder{}
		handler := NewFeedbackHandler(recorder, nil)

		req := httptest.NewRequest(http.MethodPost, "/v1/feedback",
			strings.NewReader(`{"content_id": "youtube:v1", "provider": "youtube", "type": "video", "value": 1}`))
		rec := httptest.NewRecorder()

		handler.Create(rec, req)

		assert.Equal(t, http.StatusAccepted, rec.Code)
		assert.Equal(t, 1, recorder.recorded)
		assert.Contains(t, rec.Body.String(), "accepted")
	})
}
