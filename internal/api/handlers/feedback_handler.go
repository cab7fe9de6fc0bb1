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

// FeedbackService defines the interface for feedback-driven preference updates.
type FeedbackService interface {
	ApplyFeedback(ctx context.Context, userID, ingredient, cuisine, feedback, namespace string) (string, error)
}

// FeedbackHandler handles HTTP requests for preference feedback.
type FeedbackHandler struct {
	service FeedbackService
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(service FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: service}
}

// FeedbackRequest is the body for POST /v1/preferences/feedback.
type FeedbackRequest struct {
	UserID     string `json:"user_id"    validate:"required,no_null_bytes"`
	Ingredient string `json:"ingredient" validate:"required,no_null_bytes"`
	Cuisine    string `json:"cuisine"    validate:"required,no_null_bytes"`
	Feedback   string `json:"feedback"   validate:"required,oneof=more less perfect"`
	Namespace  string `json:"namespace,omitempty"`
}

// FeedbackResponse is the response for POST /v1/preferences/feedback.
type FeedbackResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Apply handles POST /v1/preferences/feedback.
func (h *FeedbackHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest

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

	id, err := h.service.ApplyFeedback(r.Context(), req.UserID, req.Ingredient, req.Cuisine, req.Feedback, req.Namespace)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFeedback):
			response.RespondUnprocessableEntity(w, err.Error())
		case errors.Is(err, service.ErrNoPreferenceFound):
			response.RespondNotFound(w, "No matching taste preference found")
		case errors.Is(err, service.ErrMissingUserID),
			errors.Is(err, service.ErrMissingIngredient),
			errors.Is(err, service.ErrMissingCuisine):
			response.RespondBadRequest(w, err.Error())
		default:
			response.RespondInternalServerError(w, "Feedback update failed")
		}

		return
	}

	response.RespondJSON(w, http.StatusOK, FeedbackResponse{ID: id, Status: "updated"})
}
