package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/interestmap/engine/internal/models"
	"github.com/interestmap/engine/internal/service"
)

type mockContentEngine struct {
	getFunc func(ctx context.Context, req service.GetContentRequest) (service.GetContentResponse, error)
}

func (m *mockContentEngine) GetContent(
	ctx context.Context, req service.GetContentRequest,
) (service.GetContentResponse, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, req)
	}

	return service.GetContentResponse{}, nil
}

func TestContentHandler_Get(t *testing.T) {
	t.Run("invalid JSON returns 400", func(t *testing.T) {
		handler := NewContentHandler(&mockContentEngine{})

		req := httptest.NewRequest(http.MethodPost, "/v1/content", strings.NewReader("{not json"))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown field returns 400", func(t *testing.T) {
		handler := NewContentHandler(&mockContentEngine{})

		req := httptest.NewRequest(http.MethodPost, "/v1/content",
			strings.NewReader(`{"interest_ids": ["go"], "bogus": 1}`))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown provider returns 422", func(t *testing.T) {
		handler := NewContentHandler(&mockContentEngine{})

		req := httptest.NewRequest(http.MethodPost, "/v1/content",
			strings.NewReader(`{"interest_ids": ["go"], "provider_ids": ["myspace"]}`))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("engine error returns 500", func(t *testing.T) {
		handler := NewContentHandler(&mockContentEngine{
			getFunc: func(_ context.Context, _ service.GetContentRequest) (service.GetContentResponse, error) {
				return service.GetContentResponse{}, errors.New("broken")
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/v1/content",
			strings.NewReader(`{"interest_ids": ["go"]}`))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("success returns items and debug", func(t *testing.T) {
		score := 0.9

		handler := NewContentHandler(&mockContentEngine{
			getFunc: func(_ context.Context, req service.GetContentRequest) (service.GetContentResponse, error) {
				assert.Equal(t, []string{"go"}, req.InterestIDs)

				return service.GetContentResponse{
					Items: []models.ContentItem{
						{ID: "youtube:v1", Provider: models.ProviderYouTube, Title: "Go talk", Score: &score},
					},
					Debug: models.EngineDebug{
						Fallback: &models.FallbackDebug{Reason: "catalog_store_unavailable"},
					},
				}, nil
			},
		})

		req := httptest.NewRequest(http.MethodPost, "/v1/content",
			strings.NewReader(`{"interest_ids": ["go"], "limit": 10}`))
		rec := httptest.NewRecorder()

		handler.Get(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var resp service.GetContentResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		require.Len(t, resp.Items, 1)
		assert.Equal(t, "youtube:v1", resp.Items[0].ID)
		require.NotNil(t, resp.Debug.Fallback)
		assert.Equal(t, "catalog_store_unavailable", resp.Debug.Fallback.Reason)
	})
}
