package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/observability"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// Feedback keywords accepted by ApplyFeedback.
const (
	FeedbackMore    = "more"
	FeedbackLess    = "less"
	FeedbackPerfect = "perfect"
)

// Transition constants for the feedback update rule.
const (
	moreAmountFactor       = 1.1
	lessAmountFactor       = 0.9
	perfectWeightIncrement = 1.0
	defaultFeedbackTopK    = 5
)

// Sentinel errors for feedback (used by handlers for status mapping).
var (
	ErrInvalidFeedback   = errors.New(`feedback must be one of "more", "less", "perfect"`)
	ErrNoPreferenceFound = errors.New("no matching taste preference found")
	ErrMissingIngredient = errors.New("ingredient is required")
	ErrMissingCuisine    = errors.New("cuisine is required")
)

// retrievalEngine is the lookup interface the feedback engine needs.
type retrievalEngine interface {
	Find(ctx context.Context, queryVector []float32, p FindParams) ([]taste.ScoredRecord, error)
}

// FeedbackService locates the authoritative record for a (user, ingredient,
// cuisine) triple and applies the feedback transition, re-embedding and
// upserting the full record as one logical step.
type FeedbackService struct {
	embedder   embeddings.Client
	retrieval  retrievalEngine
	codec      *taste.Codec
	index      vectorindex.Index
	topK       int
	exactMatch bool
	metrics    observability.FeedbackMetrics
	logger     *slog.Logger
}

// FeedbackServiceParams configures FeedbackService. Metrics may be nil.
type FeedbackServiceParams struct {
	Embedder  embeddings.Client
	Retrieval retrievalEngine
	Codec     *taste.Codec
	Index     vectorindex.Index
	// TopK is the candidate count for the update lookup (default 5).
	TopK int
	// ExactMatch adds an ingredient+cuisine exact filter before the
	// feedback-weight ranking. Off by default: the similarity-based lookup can
	// pick the wrong record among equal-weight near-duplicates, but that
	// best-effort behavior is the documented contract.
	ExactMatch bool
	Metrics    observability.FeedbackMetrics
	Logger     *slog.Logger
}

// NewFeedbackService creates a feedback update engine.
func NewFeedbackService(p FeedbackServiceParams) *FeedbackService {
	topK := p.TopK
	if topK <= 0 {
		topK = defaultFeedbackTopK
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &FeedbackService{
		embedder:   p.Embedder,
		retrieval:  p.Retrieval,
		codec:      p.Codec,
		index:      p.Index,
		topK:       topK,
		exactMatch: p.ExactMatch,
		metrics:    p.Metrics,
		logger:     logger,
	}
}

// ApplyFeedback adjusts the user's stored preference for the ingredient and
// returns the id of the updated record.
//
// The target is found by embedding the ingredient alone and retrieving the
// user's records with no score threshold; among the candidates the one with
// the highest feedback_weight wins (first-seen order breaks ties). The
// transition is more -> amount x1.1, less -> amount x0.9, perfect -> amount
// unchanged and feedback_weight +1.0. The derived text is rebuilt from the
// caller's ingredient/cuisine and the new amount (stored unit and servings are
// preserved), re-embedded, and the whole record upserted under the same id.
//
// Embedding or index failures during the update are logged and reported as
// ErrNoPreferenceFound: the caller sees one not-found-or-failed signal and no
// partial write ever happens.
func (s *FeedbackService) ApplyFeedback(
	ctx context.Context, userID, ingredient, cuisine, feedback, namespace string,
) (string, error) {
	outcome := "error"

	defer func() {
		if s.metrics != nil {
			s.metrics.RecordFeedback(ctx, feedback, outcome)
		}
	}()

	if feedback != FeedbackMore && feedback != FeedbackLess && feedback != FeedbackPerfect {
		outcome = "invalid"

		return "", ErrInvalidFeedback
	}

	if userID == "" {
		outcome = "invalid"

		return "", ErrMissingUserID
	}

	if ingredient == "" {
		outcome = "invalid"

		return "", ErrMissingIngredient
	}

	if cuisine == "" {
		outcome = "invalid"

		return "", ErrMissingCuisine
	}

	target, err := s.findTarget(ctx, userID, ingredient, cuisine, namespace)
	if err != nil {
		return "", err
	}

	if target == nil {
		outcome = "not_found"

		return "", ErrNoPreferenceFound
	}

	updated := target.Record

	switch feedback {
	case FeedbackMore:
		updated.Amount *= moreAmountFactor
	case FeedbackLess:
		updated.Amount *= lessAmountFactor
	case FeedbackPerfect:
		updated.FeedbackWeight += perfectWeightIncrement
	}

	// The caller's identity fields replace the stored ones; unit and servings
	// are kept from the stored record.
	updated.UserID = userID
	updated.Ingredient = ingredient
	updated.Cuisine = cuisine

	// Re-derive text and embedding together with the new amount, then upsert:
	// one logical step, so the stored vector always matches the stored fields.
	entry, err := s.codec.EncodeRecord(ctx, updated)
	if err != nil {
		s.logger.Error("feedback: re-embed failed", "error", err, "id", updated.ID, "user_id", userID)
		outcome = "not_found"

		return "", ErrNoPreferenceFound
	}

	written, err := s.index.Upsert(ctx, []vectorindex.Entry{*entry}, namespace)
	if err != nil {
		s.logger.Error("feedback: upsert failed", "error", err, "id", updated.ID, "user_id", userID)
		outcome = "not_found"

		return "", ErrNoPreferenceFound
	}

	if written == 0 {
		s.logger.Warn("feedback: upsert wrote no entries", "id", updated.ID, "user_id", userID)
		outcome = "not_found"

		return "", ErrNoPreferenceFound
	}

	outcome = "updated"

	return updated.ID, nil
}

// findTarget returns the highest-feedback-weight candidate for the user, or
// nil when the user has no retrievable preferences.
func (s *FeedbackService) findTarget(
	ctx context.Context, userID, ingredient, cuisine, namespace string,
) (*taste.ScoredRecord, error) {
	probe, err := s.embedder.CreateEmbedding(ctx, ingredient)
	if err != nil {
		s.logger.Error("feedback: probe embedding failed", "error", err, "ingredient", ingredient)

		return nil, ErrNoPreferenceFound
	}

	params := FindParams{
		UserID:    userID,
		TopK:      s.topK,
		Namespace: namespace,
	}
	if s.exactMatch {
		params.Ingredient = ingredient
		params.Extra = vectorindex.Filter{taste.FieldCuisine: cuisine}
	}

	candidates, err := s.retrieval.Find(ctx, probe, params)
	if err != nil {
		return nil, fmt.Errorf("feedback lookup: %w", err)
	}

	if len(candidates) == 0 {
		return nil, nil
	}

	ranked := OrderForUpdate(candidates)

	return &ranked[0], nil
}
