package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chefmate/tastehub/internal/api/response"
	"github.com/chefmate/tastehub/internal/api/validation"
	"github.com/chefmate/tastehub/internal/service"
)

// RecommendService defines the interface for per-ingredient preference lookups.
type RecommendService interface {
	Recommend(ctx context.Context, req service.RecommendRequest) (*service.RecommendResult, error)
}

// RecommendHandler handles HTTP requests for prompt augmentation lookups.
type RecommendHandler struct {
	service RecommendService
}

// NewRecommendHandler creates a new recommend handler.
func NewRecommendHandler(service RecommendService) *RecommendHandler {
	return &RecommendHandler{service: service}
}

// RecommendRequest is the body for POST /v1/preferences/recommend.
type RecommendRequest struct {
	UserID      string   `json:"user_id"     validate:"required,no_null_bytes"`
	Cuisine     string   `json:"cuisine"     validate:"required,no_null_bytes"`
	Servings    int      `json:"servings"    validate:"required,gt=0"`
	Ingredients []string `json:"ingredients" validate:"required,min=1,dive,required"`
	Namespace   string   `json:"namespace,omitempty"`
}

// RecommendResponse is the response for POST /v1/preferences/recommend.
// Prompts are in the same order as the request's ingredients; a lookup that
// failed holds an error placeholder at its position and is repeated in
// Errors. Partial failures are sent as 207 Multi-Status.
type RecommendResponse struct {
	Prompts []string `json:"prompts"`
	Errors  []string `json:"errors,omitempty"`
}

// Recommend handles POST /v1/preferences/recommend.
func (h *RecommendHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	var req RecommendRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	result, err := h.service.Recommend(r.Context(), service.RecommendRequest{
		UserID:      req.UserID,
		Cuisine:     req.Cuisine,
		Servings:    req.Servings,
		Ingredients: req.Ingredients,
		Namespace:   req.Namespace,
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingUserID) ||
			errors.Is(err, service.ErrMissingCuisine) ||
			errors.Is(err, service.ErrInvalidServings) ||
			errors.Is(err, service.ErrNoIngredients) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondInternalServerError(w, "Recommendation failed")

		return
	}

	status := http.StatusOK
	if len(result.Errors) > 0 {
		status = http.StatusMultiStatus
	}

	response.RespondJSON(w, status, RecommendResponse{Prompts: result.Prompts, Errors: result.Errors})
}
