package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// fakeIndex is a function-field test double for vectorindex.Index.
type fakeIndex struct {
	upsertFunc func(ctx context.Context, entries []vectorindex.Entry, namespace string) (int, error)
	queryFunc  func(ctx context.Context, vector []float32, topK int, filter vectorindex.Filter, namespace string) ([]vectorindex.Match, error)
	fetchFunc  func(ctx context.Context, id, namespace string) (*vectorindex.Entry, error)
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []vectorindex.Entry, namespace string) (int, error) {
	return f.upsertFunc(ctx, entries, namespace)
}

func (f *fakeIndex) Query(
	ctx context.Context, vector []float32, topK int, filter vectorindex.Filter, namespace string,
) ([]vectorindex.Match, error) {
	return f.queryFunc(ctx, vector, topK, filter, namespace)
}

func (f *fakeIndex) Fetch(ctx context.Context, id, namespace string) (*vectorindex.Entry, error) {
	return f.fetchFunc(ctx, id, namespace)
}

// funcEmbedder adapts a function to embeddings.Client.
type funcEmbedder func(ctx context.Context, text string) ([]float32, error)

func (f funcEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	return f(ctx, text)
}

func matchFor(record taste.Record, score float64) vectorindex.Match {
	return vectorindex.Match{ID: record.ID, Score: score, Metadata: record.Metadata()}
}

func TestRetrievalService_Find(t *testing.T) {
	ctx := context.Background()
	probe := []float32{0.1, 0.2}

	t.Run("requires user id and a query vector", func(t *testing.T) {
		service := NewRetrievalService(&fakeIndex{}, nil)

		_, err := service.Find(ctx, probe, FindParams{})
		assert.ErrorIs(t, err, ErrMissingUserID)

		_, err = service.Find(ctx, nil, FindParams{UserID: "user-1"})
		assert.ErrorIs(t, err, ErrInvalidQueryVector)
	})

	t.Run("conjoins identity and extra filters", func(t *testing.T) {
		var gotFilter vectorindex.Filter

		index := &fakeIndex{
			queryFunc: func(_ context.Context, _ []float32, _ int, filter vectorindex.Filter, _ string) ([]vectorindex.Match, error) {
				gotFilter = filter

				return nil, nil
			},
		}

		service := NewRetrievalService(index, nil)

		_, err := service.Find(ctx, probe, FindParams{
			UserID:     "user-1",
			Ingredient: "paprika",
			Extra:      vectorindex.Filter{taste.FieldCuisine: "hungarian"},
		})
		require.NoError(t, err)

		assert.Equal(t, vectorindex.Filter{
			taste.FieldUserID:     "user-1",
			taste.FieldIngredient: "paprika",
			taste.FieldCuisine:    "hungarian",
		}, gotFilter)
	})

	t.Run("drops hits below the minimum score", func(t *testing.T) {
		records := []taste.Record{
			{ID: "a", UserID: "user-1", Ingredient: "salt"},
			{ID: "b", UserID: "user-1", Ingredient: "salt"},
			{ID: "c", UserID: "user-1", Ingredient: "salt"},
		}
		index := &fakeIndex{
			queryFunc: func(context.Context, []float32, int, vectorindex.Filter, string) ([]vectorindex.Match, error) {
				return []vectorindex.Match{
					matchFor(records[0], 0.9),
					matchFor(records[1], 0.75),
					matchFor(records[2], 0.5),
				}, nil
			},
		}

		service := NewRetrievalService(index, nil)
		minScore := 0.7

		got, err := service.Find(ctx, probe, FindParams{UserID: "user-1", MinScore: &minScore})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Record.ID)
		assert.Equal(t, "b", got[1].Record.ID)
	})

	t.Run("keeps every hit when no minimum is set", func(t *testing.T) {
		index := &fakeIndex{
			queryFunc: func(context.Context, []float32, int, vectorindex.Filter, string) ([]vectorindex.Match, error) {
				return []vectorindex.Match{
					matchFor(taste.Record{ID: "a"}, 0.2),
					matchFor(taste.Record{ID: "b"}, 0.1),
				}, nil
			},
		}

		service := NewRetrievalService(index, nil)

		got, err := service.Find(ctx, probe, FindParams{UserID: "user-1"})
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("index failure degrades to an empty result", func(t *testing.T) {
		index := &fakeIndex{
			queryFunc: func(context.Context, []float32, int, vectorindex.Filter, string) ([]vectorindex.Match, error) {
				return nil, errors.New("connection refused")
			},
		}

		service := NewRetrievalService(index, nil)

		got, err := service.Find(ctx, probe, FindParams{UserID: "user-1"})
		assert.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestOrderForDisplay(t *testing.T) {
	records := []taste.ScoredRecord{
		{Record: taste.Record{ID: "low"}, Score: 0.6},
		{Record: taste.Record{ID: "high"}, Score: 0.9},
		{Record: taste.Record{ID: "mid"}, Score: 0.7},
	}

	got := OrderForDisplay(records)

	assert.Equal(t, "high", got[0].Record.ID)
	assert.Equal(t, "mid", got[1].Record.ID)
	assert.Equal(t, "low", got[2].Record.ID)
	// Input order is untouched.
	assert.Equal(t, "low", records[0].Record.ID)
}

func TestOrderForUpdate(t *testing.T) {
	t.Run("orders by descending feedback weight", func(t *testing.T) {
		records := []taste.ScoredRecord{
			{Record: taste.Record{ID: "weak", FeedbackWeight: 1.0}, Score: 0.95},
			{Record: taste.Record{ID: "strong", FeedbackWeight: 4.0}, Score: 0.6},
		}

		got := OrderForUpdate(records)
		assert.Equal(t, "strong", got[0].Record.ID)
	})

	t.Run("ties keep first-seen order", func(t *testing.T) {
		records := []taste.ScoredRecord{
			{Record: taste.Record{ID: "first", FeedbackWeight: 2.0}},
			{Record: taste.Record{ID: "second", FeedbackWeight: 2.0}},
		}

		got := OrderForUpdate(records)
		assert.Equal(t, "first", got[0].Record.ID)
		assert.Equal(t, "second", got[1].Record.ID)
	})
}
