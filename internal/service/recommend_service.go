package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/observability"
	"github.com/chefmate/tastehub/internal/taste"
)

// Defaults for the recommendation lookup.
const (
	// DefaultMinScore is the similarity floor below which a retrieved record is
	// treated as no match.
	DefaultMinScore = 0.6
	// DefaultSearchTopK is the candidate count per ingredient lookup.
	DefaultSearchTopK = 5
)

// Sentinel errors for recommendation (used by handlers for status mapping).
var (
	ErrNoIngredients   = errors.New("at least one ingredient is required")
	ErrInvalidServings = errors.New("servings must be positive")
)

// RecommendRequest describes one prompt augmentation request: the user's
// planned recipe, one lookup per ingredient.
type RecommendRequest struct {
	UserID      string
	Cuisine     string
	Servings    int
	Ingredients []string
	Namespace   string
}

// RecommendResult carries one guidance line per requested ingredient, in
// request order. Ingredients whose lookup failed mid-flight hold an error
// placeholder at their position and are repeated in Errors, so callers can
// tell a partial failure from a clean no-match result.
type RecommendResult struct {
	Prompts []string
	Errors  []string
}

// RecommendService turns taste history into per-ingredient guidance lines for
// prompt augmentation. One query per ingredient; results come back in the
// request's ingredient order.
type RecommendService struct {
	embedder  embeddings.Client
	retrieval retrievalEngine
	minScore  float64
	topK      int
	metrics   observability.SearchMetrics
	logger    *slog.Logger
}

// RecommendServiceParams configures RecommendService. Metrics may be nil.
type RecommendServiceParams struct {
	Embedder  embeddings.Client
	Retrieval retrievalEngine
	// MinScore overrides DefaultMinScore when positive.
	MinScore float64
	// TopK overrides DefaultSearchTopK when positive.
	TopK    int
	Metrics observability.SearchMetrics
	Logger  *slog.Logger
}

// NewRecommendService creates a recommendation engine.
func NewRecommendService(p RecommendServiceParams) *RecommendService {
	minScore := p.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}

	topK := p.TopK
	if topK <= 0 {
		topK = DefaultSearchTopK
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &RecommendService{
		embedder:  p.Embedder,
		retrieval: p.Retrieval,
		minScore:  minScore,
		topK:      topK,
		metrics:   p.Metrics,
		logger:    logger,
	}
}

// QueryText builds the semantic query for one ingredient lookup. The phrasing
// must stay aligned with the indexed derived text for cosine similarity to be
// meaningful.
func QueryText(ingredient, cuisine string) string {
	return fmt.Sprintf("%s %s cuisine taste", ingredient, cuisine)
}

// Recommend returns one guidance line per requested ingredient, in request
// order. Each line is a scaled preference from the user's taste history, a
// no-preference placeholder, or an error placeholder when that one lookup
// failed; a failure for one ingredient never aborts its siblings. The
// returned error covers malformed input only.
func (s *RecommendService) Recommend(ctx context.Context, req RecommendRequest) (*RecommendResult, error) {
	if req.UserID == "" {
		return nil, ErrMissingUserID
	}

	if req.Cuisine == "" {
		return nil, ErrMissingCuisine
	}

	if req.Servings <= 0 {
		return nil, ErrInvalidServings
	}

	if len(req.Ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	result := &RecommendResult{Prompts: make([]string, 0, len(req.Ingredients))}

	for _, ingredient := range req.Ingredients {
		line, failed := s.recommendOne(ctx, req, ingredient)
		result.Prompts = append(result.Prompts, line)

		if failed {
			result.Errors = append(result.Errors, line)
		}
	}

	return result, nil
}

// recommendOne runs one ingredient lookup and renders its guidance line.
// failed is true when the lookup itself broke, as opposed to finding nothing.
func (s *RecommendService) recommendOne(ctx context.Context, req RecommendRequest, ingredient string) (line string, failed bool) {
	start := time.Now()
	outcome := "error"

	defer func() {
		if s.metrics != nil {
			s.metrics.RecordSearch(ctx, outcome, time.Since(start))
		}
	}()

	if ingredient == "" {
		outcome = "no_match"

		return taste.FormatPreference(nil, ingredient, req.Servings), false
	}

	queryVector, err := s.embedder.CreateEmbedding(ctx, QueryText(ingredient, req.Cuisine))
	if err != nil {
		s.logger.Error("recommend: query embedding failed",
			"error", err, "ingredient", ingredient, "user_id", req.UserID)

		return taste.FormatLookupError(ingredient), true
	}

	minScore := s.minScore

	matches, err := s.retrieval.Find(ctx, queryVector, FindParams{
		UserID:     req.UserID,
		Ingredient: ingredient,
		MinScore:   &minScore,
		TopK:       s.topK,
		Namespace:  req.Namespace,
	})
	if err != nil {
		s.logger.Error("recommend: retrieval failed",
			"error", err, "ingredient", ingredient, "user_id", req.UserID)

		return taste.FormatLookupError(ingredient), true
	}

	if len(matches) == 0 {
		outcome = "no_match"

		return taste.FormatPreference(nil, ingredient, req.Servings), false
	}

	outcome = "hit"
	top := OrderForDisplay(matches)[0]

	return taste.FormatPreference(&top, ingredient, req.Servings), false
}
