package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/tasteerrors"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// RecordService provides direct access to indexed taste records: synchronous
// create, fetch by id, and filtered similarity search. The change stream path
// goes through ingest instead; this is the interactive API surface.
type RecordService struct {
	codec     *taste.Codec
	index     vectorindex.Index
	embedder  embeddings.Client
	retrieval retrievalEngine
	logger    *slog.Logger
}

// RecordServiceParams configures RecordService.
type RecordServiceParams struct {
	Codec     *taste.Codec
	Index     vectorindex.Index
	Embedder  embeddings.Client
	Retrieval retrievalEngine
	Logger    *slog.Logger
}

// NewRecordService creates a record service.
func NewRecordService(p RecordServiceParams) *RecordService {
	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecordService{
		codec:     p.Codec,
		index:     p.Index,
		embedder:  p.Embedder,
		retrieval: p.Retrieval,
		logger:    logger,
	}
}

// Create validates, encodes, and indexes one taste observation document.
// Returns the indexed record as stored. Documents failing validation return
// tasteerrors.ErrValidation; embedding or index failures return
// tasteerrors.ErrUnavailable.
func (s *RecordService) Create(ctx context.Context, fields map[string]any, namespace string) (*taste.Record, error) {
	entry, err := s.codec.Encode(ctx, fields)
	if err != nil {
		if errors.Is(err, taste.ErrRejected) {
			return nil, tasteerrors.NewValidationError("", err.Error())
		}

		// The document was well-formed; only the embedding call can fail here.
		return nil, tasteerrors.NewUnavailableError("embedding", err.Error())
	}

	if _, err := s.index.Upsert(ctx, []vectorindex.Entry{*entry}, namespace); err != nil {
		return nil, tasteerrors.NewUnavailableError("vector index", err.Error())
	}

	record := taste.Decode(entry.ID, entry.Metadata)

	return &record, nil
}

// Get fetches one record by id. Returns tasteerrors.ErrNotFound when the id is
// not indexed.
func (s *RecordService) Get(ctx context.Context, id, namespace string) (*taste.Record, error) {
	entry, err := s.index.Fetch(ctx, id, namespace)
	if err != nil {
		if errors.Is(err, vectorindex.ErrNotFound) {
			return nil, tasteerrors.NewNotFoundError("taste record", "")
		}

		return nil, fmt.Errorf("fetch record: %w", err)
	}

	record := taste.Decode(entry.ID, entry.Metadata)

	return &record, nil
}

// SearchRecordsParams describes one record search.
type SearchRecordsParams struct {
	UserID     string
	Ingredient string
	Cuisine    string
	// MinScore drops hits below it when non-nil.
	MinScore *float64
	TopK     int
	Namespace string
}

// Search embeds the query text for the (ingredient, cuisine) pair and returns
// the user's matching records in descending similarity order.
func (s *RecordService) Search(ctx context.Context, p SearchRecordsParams) ([]taste.ScoredRecord, error) {
	if p.UserID == "" {
		return nil, ErrMissingUserID
	}

	if p.Ingredient == "" {
		return nil, ErrMissingIngredient
	}

	queryText := p.Ingredient
	if p.Cuisine != "" {
		queryText = QueryText(p.Ingredient, p.Cuisine)
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	matches, err := s.retrieval.Find(ctx, queryVector, FindParams{
		UserID:     p.UserID,
		Ingredient: p.Ingredient,
		MinScore:   p.MinScore,
		TopK:       p.TopK,
		Namespace:  p.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("search records: %w", err)
	}

	return OrderForDisplay(matches), nil
}
