package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/chefmate/tastehub/internal/api/response"
	"github.com/chefmate/tastehub/internal/api/validation"
	"github.com/chefmate/tastehub/internal/service"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/tasteerrors"
)

// RecordsService defines the interface for direct taste record access.
type RecordsService interface {
	Create(ctx context.Context, fields map[string]any, namespace string) (*taste.Record, error)
	Get(ctx context.Context, id, namespace string) (*taste.Record, error)
	Search(ctx context.Context, p service.SearchRecordsParams) ([]taste.ScoredRecord, error)
}

// RecordsHandler handles HTTP requests for taste records.
type RecordsHandler struct {
	service RecordsService
}

// NewRecordsHandler creates a new records handler.
func NewRecordsHandler(service RecordsService) *RecordsHandler {
	return &RecordsHandler{service: service}
}

// RecordResponse is one taste record on the wire.
type RecordResponse struct {
	ID             string  `json:"id"`
	UserID         string  `json:"user_id"`
	Ingredient     string  `json:"ingredient"`
	Amount         float64 `json:"amount"`
	Unit           string  `json:"unit,omitempty"`
	Servings       int     `json:"servings"`
	Cuisine        string  `json:"cuisine"`
	FeedbackWeight float64 `json:"feedback_weight"`
	OriginalText   string  `json:"original_text,omitempty"`
	Score          float64 `json:"score,omitempty"`
}

func toRecordResponse(r taste.Record, score float64) RecordResponse {
	return RecordResponse{
		ID:             r.ID,
		UserID:         r.UserID,
		Ingredient:     r.Ingredient,
		Amount:         r.Amount,
		Unit:           r.Unit,
		Servings:       r.Servings,
		Cuisine:        r.Cuisine,
		FeedbackWeight: r.FeedbackWeight,
		OriginalText:   r.OriginalText,
		Score:          score,
	}
}

// Create handles POST /v1/taste-records. The body is the raw taste observation
// document; required fields are checked by the codec.
func (h *RecordsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var fields map[string]any

	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	namespace := r.URL.Query().Get("namespace")

	record, err := h.service.Create(r.Context(), fields, namespace)
	if err != nil {
		if errors.Is(err, tasteerrors.ErrValidation) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		if errors.Is(err, tasteerrors.ErrUnavailable) {
			response.RespondServiceUnavailable(w, err.Error())

			return
		}

		response.RespondInternalServerError(w, "An unexpected error occurred")

		return
	}

	response.RespondJSON(w, http.StatusCreated, toRecordResponse(*record, 0))
}

// Get handles GET /v1/taste-records/{id}.
func (h *RecordsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		response.RespondBadRequest(w, "Taste record ID is required")

		return
	}

	namespace := r.URL.Query().Get("namespace")

	record, err := h.service.Get(r.Context(), id, namespace)
	if err != nil {
		if errors.Is(err, tasteerrors.ErrNotFound) {
			response.RespondNotFound(w, "Taste record not found")

			return
		}

		response.RespondInternalServerError(w, "An unexpected error occurred")

		return
	}

	response.RespondJSON(w, http.StatusOK, toRecordResponse(*record, 0))
}

// ListRecordsQuery is the query for GET /v1/taste-records.
type ListRecordsQuery struct {
	UserID     string   `form:"user_id"    validate:"required,no_null_bytes"`
	Ingredient string   `form:"ingredient" validate:"required,no_null_bytes"`
	Cuisine    string   `form:"cuisine"`
	MinScore   *float64 `form:"min_score"  validate:"omitempty,gte=0,lte=1"`
	TopK       int      `form:"top_k"      validate:"omitempty,gte=1,lte=100"`
	Namespace  string   `form:"namespace"`
}

// ListRecordsResponse is the response for GET /v1/taste-records.
type ListRecordsResponse struct {
	Records []RecordResponse `json:"records"`
}

// List handles GET /v1/taste-records: a filtered similarity search over the
// user's records, in descending score order.
func (h *RecordsHandler) List(w http.ResponseWriter, r *http.Request) {
	var query ListRecordsQuery

	if err := validation.ValidateAndDecodeQueryParams(r, &query); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	matches, err := h.service.Search(r.Context(), service.SearchRecordsParams{
		UserID:     query.UserID,
		Ingredient: query.Ingredient,
		Cuisine:    query.Cuisine,
		MinScore:   query.MinScore,
		TopK:       query.TopK,
		Namespace:  query.Namespace,
	})
	if err != nil {
		if errors.Is(err, service.ErrMissingUserID) || errors.Is(err, service.ErrMissingIngredient) {
			response.RespondBadRequest(w, err.Error())

			return
		}

		response.RespondInternalServerError(w, "Search failed")

		return
	}

	records := make([]RecordResponse, len(matches))
	for i := range matches {
		records[i] = toRecordResponse(matches[i].Record, matches[i].Score)
	}

	response.RespondJSON(w, http.StatusOK, ListRecordsResponse{Records: records})
}
