package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/interestmap/engine/internal/api/response"
	"github.com/interestmap/engine/internal/service"
)

// ContentEngine runs one recommendation request end to end.
type ContentEngine interface {
	GetContent(ctx context.Context, req service.GetContentRequest) (service.GetContentResponse, error)
}

// ContentHandler handles content recommendation requests.
type ContentHandler struct {
	engine ContentEngine
}

// NewContentHandler creates a new content handler.
func NewContentHandler(engine ContentEngine) *ContentHandler {
	return &ContentHandler{engine: engine}
}

// Get handles POST /v1/content.
func (h *ContentHandler) Get(w http.ResponseWriter, r *http.Request) {
	var req service.GetContentRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	for _, p := range req.ProviderIDs {
		if !p.Valid() {
			response.RespondUnprocessableEntity(w, "Unknown provider: "+string(p))

			return
		}
	}

	result, err := h.engine.GetContent(r.Context(), req)
	if err != nil {
		response.RespondInternalServerError(w, "Failed to get content")

		return
	}

	response.RespondJSON(w, http.StatusOK, result)
}
