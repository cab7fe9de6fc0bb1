package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/riverqueue/river"

	"github.com/chefmate/tastehub/internal/api/response"
	"github.com/chefmate/tastehub/internal/api/validation"
	"github.com/chefmate/tastehub/internal/ingest"
	"github.com/chefmate/tastehub/internal/service"
)

// maxChangeBatch caps how many events one request may carry.
const maxChangeBatch = 500

// ChangesHandler receives change stream batches and enqueues one ingestion
// job per event. Processing is asynchronous; the response acknowledges
// acceptance, not indexing.
type ChangesHandler struct {
	inserter service.IngestJobInserter
	logger   *slog.Logger
}

// NewChangesHandler creates a new changes handler. Logger may be nil.
func NewChangesHandler(inserter service.IngestJobInserter, logger *slog.Logger) *ChangesHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ChangesHandler{inserter: inserter, logger: logger}
}

// ChangeEventRequest is one event in a POST /v1/changes batch.
type ChangeEventRequest struct {
	Operation  string         `json:"operation"   validate:"required,oneof=insert update replace delete"`
	DocumentID string         `json:"document_id" validate:"required,no_null_bytes"`
	Document   map[string]any `json:"document,omitempty"`
}

// ChangesRequest is the body for POST /v1/changes.
type ChangesRequest struct {
	Events    []ChangeEventRequest `json:"events" validate:"required,min=1,max=500,dive"`
	Namespace string               `json:"namespace,omitempty"`
}

// ChangesResponse is the response for POST /v1/changes. Ignored counts events
// acknowledged without a job, currently only deletes.
type ChangesResponse struct {
	Enqueued int `json:"enqueued"`
	Failed   int `json:"failed"`
	Ignored  int `json:"ignored"`
}

// Receive handles POST /v1/changes.
func (h *ChangesHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var req ChangesRequest

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&req); err != nil {
		response.RespondBadRequest(w, "Invalid request body")

		return
	}

	if len(req.Events) > maxChangeBatch {
		response.RespondBadRequest(w, "Too many events in one batch")

		return
	}

	if err := validation.ValidateStruct(&req); err != nil {
		validation.RespondValidationError(w, err)

		return
	}

	var enqueued, failed, ignored int

	for _, event := range req.Events {
		// Deletes never touch the index; acknowledge them without a job.
		if event.Operation == ingest.OpDelete {
			ignored++

			continue
		}

		args := service.TasteIngestArgs{
			Operation:  event.Operation,
			DocumentID: event.DocumentID,
			Document:   event.Document,
			Namespace:  req.Namespace,
		}

		if _, err := h.inserter.Insert(r.Context(), args, &river.InsertOpts{Queue: service.IngestQueueName}); err != nil {
			h.logger.Error("changes: enqueue failed",
				"document_id", event.DocumentID, "operation", event.Operation, "error", err)
			failed++

			continue
		}

		enqueued++
	}

	response.RespondJSON(w, http.StatusAccepted, ChangesResponse{Enqueued: enqueued, Failed: failed, Ignored: ignored})
}
