package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nextwatch/engine/internal/api/response"
	"github.com/nextwatch/engine/internal/api/validation"
	"github.com/nextwatch/engine/internal/huberrors"
	"github.com/nextwatch/engine/internal/models"
)

// RecommendationService defines the interface for the recommendation flow.
type RecommendationService interface {
	Recommend(ctx context.Context, req *models.RecommendationRequest) (*models.RecommendationResponse, error)
}

// RecommendationsHandler handles HTTP requests for movie recommendations.
type RecommendationsHandler struct {
	service RecommendationService
}

// NewRecommendationsHandler creates a new recommendations handler.
func NewRecommendationsHandler(service RecommendationService) *RecommendationsHandler {
	return &RecommendationsHandler{service: service}
}

// Create handles POST /v1/recommendations.
// The request lists reference titles in priority order; the response carries
// ranked recommendations with explanations and quality scores.
func (h *RecommendationsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")
		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)
		return
	}

	resp, err := h.service.Recommend(r.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, huberrors.ErrNotFound):
			response.RespondNotFound(w, err.Error())
		case errors.Is(err, huberrors.ErrValidation):
			response.RespondBadRequest(w, err.Error())
		default:
			response.RespondInternalServerError(w, "An unexpected error occurred")
		}
		return
	}

	response.RespondJSON(w, http.StatusOK, resp)
}
