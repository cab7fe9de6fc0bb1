// Package service implements the retrieval, feedback, and recommendation
// engines layered on the vector index.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"

	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// Sentinel errors for retrieval (used by handlers for status mapping).
var (
	ErrMissingUserID      = errors.New("user_id is required")
	ErrInvalidQueryVector = errors.New("query vector must be non-empty")
)

// FindParams describes one filtered similarity lookup.
type FindParams struct {
	// UserID is always applied as an exact-match filter. Required.
	UserID string
	// Ingredient adds an exact-match filter when non-empty.
	Ingredient string
	// MinScore drops hits scoring below it when non-nil. The engine enforces
	// this itself rather than trusting the index's own threshold behavior.
	MinScore *float64
	// TopK is the candidate count requested from the index (default 5).
	TopK int
	// Extra is an optional caller-supplied filter, conjoined with the identity
	// filters.
	Extra vectorindex.Filter
	// Namespace selects the index namespace ("" is the default namespace).
	Namespace string
}

// RetrievalService executes filtered similarity searches against the vector
// index and decodes hits into scored taste records.
type RetrievalService struct {
	index  vectorindex.Index
	logger *slog.Logger
}

// NewRetrievalService creates a retrieval engine on the given index. Logger may be nil.
func NewRetrievalService(index vectorindex.Index, logger *slog.Logger) *RetrievalService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RetrievalService{index: index, logger: logger}
}

// Find issues one k-NN query with the conjunction filter from p and applies
// min-score post-filtering. Results keep the index's descending-similarity
// order. An unreachable index or an empty hit set yields an empty slice, never
// an error; errors are returned only for malformed input.
func (s *RetrievalService) Find(
	ctx context.Context, queryVector []float32, p FindParams,
) ([]taste.ScoredRecord, error) {
	if p.UserID == "" {
		return nil, ErrMissingUserID
	}

	if len(queryVector) == 0 {
		return nil, ErrInvalidQueryVector
	}

	filter := vectorindex.And(p.Extra, vectorindex.Filter{taste.FieldUserID: p.UserID})
	if p.Ingredient != "" {
		filter[taste.FieldIngredient] = p.Ingredient
	}

	matches, err := s.index.Query(ctx, queryVector, p.TopK, filter, p.Namespace)
	if err != nil {
		// Recoverable index failures surface as an empty result for this one
		// lookup; siblings in a batch proceed.
		s.logger.Error("retrieval: index query failed", "error", err, "user_id", p.UserID)

		return nil, nil
	}

	results := make([]taste.ScoredRecord, 0, len(matches))

	for _, m := range matches {
		if p.MinScore != nil && m.Score < *p.MinScore {
			continue
		}

		results = append(results, taste.ScoredRecord{
			Record: taste.Decode(m.ID, m.Metadata),
			Score:  m.Score,
		})
	}

	return results, nil
}

// OrderForDisplay returns a copy sorted by descending similarity score. This is
// the canonical order for presentation and prompt augmentation.
func OrderForDisplay(records []taste.ScoredRecord) []taste.ScoredRecord {
	out := make([]taste.ScoredRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})

	return out
}

// OrderForUpdate returns a copy sorted by descending feedback weight, ties kept
// in first-seen order. This is the canonical order for update lookups: the
// highest-confidence record wins.
func OrderForUpdate(records []taste.ScoredRecord) []taste.ScoredRecord {
	out := make([]taste.ScoredRecord, len(records))
	copy(out, records)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Record.FeedbackWeight > out[j].Record.FeedbackWeight
	})

	return out
}
