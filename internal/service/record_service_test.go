package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/tasteerrors"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

func TestRecordService_Create(t *testing.T) {
	ctx := context.Background()
	embedder := embeddings.NewMockClient()

	t.Run("encodes and indexes a valid document", func(t *testing.T) {
		var gotNamespace string

		index := &fakeIndex{
			upsertFunc: func(_ context.Context, entries []vectorindex.Entry, namespace string) (int, error) {
				gotNamespace = namespace

				return len(entries), nil
			},
		}
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: index, Embedder: embedder,
		})

		record, err := service.Create(ctx, map[string]any{
			"id": "rec-1", "user_id": "user-1", "ingredient": "paprika",
			"amount": 2.0, "unit": "tsp", "servings": 4, "cuisine": "hungarian",
		}, "kitchen")
		require.NoError(t, err)

		assert.Equal(t, "kitchen", gotNamespace)
		assert.Equal(t, "rec-1", record.ID)
		assert.Equal(t, "paprika", record.Ingredient)
		assert.Equal(t, 1.0, record.FeedbackWeight)
	})

	t.Run("maps rejection to a validation error", func(t *testing.T) {
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: &fakeIndex{}, Embedder: embedder,
		})

		_, err := service.Create(ctx, map[string]any{"id": "rec-1"}, "")
		assert.ErrorIs(t, err, tasteerrors.ErrValidation)
	})

	t.Run("index failure surfaces as unavailable", func(t *testing.T) {
		index := &fakeIndex{
			upsertFunc: func(context.Context, []vectorindex.Entry, string) (int, error) {
				return 0, errors.New("connection refused")
			},
		}
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: index, Embedder: embedder,
		})

		_, err := service.Create(ctx, map[string]any{
			"id": "rec-1", "user_id": "user-1", "ingredient": "paprika",
			"amount": 2.0, "servings": 4, "cuisine": "hungarian",
		}, "")
		assert.ErrorIs(t, err, tasteerrors.ErrUnavailable)
		assert.NotErrorIs(t, err, tasteerrors.ErrValidation)
	})
}

func TestRecordService_Get(t *testing.T) {
	ctx := context.Background()
	embedder := embeddings.NewMockClient()

	t.Run("decodes the stored entry", func(t *testing.T) {
		stored := taste.Record{
			ID: "rec-1", UserID: "user-1", Ingredient: "cumin",
			Amount: 1.5, Unit: "tsp", Servings: 3, Cuisine: "indian", FeedbackWeight: 2.0,
			OriginalText: "cumin 1.5tsp for 3 servings in indian cuisine",
		}
		index := &fakeIndex{
			fetchFunc: func(_ context.Context, id, _ string) (*vectorindex.Entry, error) {
				return &vectorindex.Entry{ID: id, Vector: []float32{0.1}, Metadata: stored.Metadata()}, nil
			},
		}
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: index, Embedder: embedder,
		})

		record, err := service.Get(ctx, "rec-1", "")
		require.NoError(t, err)
		assert.Equal(t, stored, *record)
	})

	t.Run("maps missing ids to not found", func(t *testing.T) {
		index := &fakeIndex{
			fetchFunc: func(context.Context, string, string) (*vectorindex.Entry, error) {
				return nil, vectorindex.ErrNotFound
			},
		}
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: index, Embedder: embedder,
		})

		_, err := service.Get(ctx, "missing", "")
		assert.ErrorIs(t, err, tasteerrors.ErrNotFound)
	})
}

func TestRecordService_Search(t *testing.T) {
	ctx := context.Background()
	embedder := embeddings.NewMockClient()

	t.Run("requires user id and ingredient", func(t *testing.T) {
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: &fakeIndex{},
			Embedder: embedder, Retrieval: &fakeRetrieval{},
		})

		_, err := service.Search(ctx, SearchRecordsParams{Ingredient: "salt"})
		assert.ErrorIs(t, err, ErrMissingUserID)

		_, err = service.Search(ctx, SearchRecordsParams{UserID: "user-1"})
		assert.ErrorIs(t, err, ErrMissingIngredient)
	})

	t.Run("embeds the cuisine-qualified query text when cuisine is set", func(t *testing.T) {
		var gotVector []float32

		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: &fakeIndex{}, Embedder: embedder,
			Retrieval: &fakeRetrieval{
				findFunc: func(_ context.Context, queryVector []float32, _ FindParams) ([]taste.ScoredRecord, error) {
					gotVector = queryVector

					return nil, nil
				},
			},
		})

		_, err := service.Search(ctx, SearchRecordsParams{UserID: "user-1", Ingredient: "salt", Cuisine: "italian"})
		require.NoError(t, err)

		want, err := embedder.CreateEmbedding(ctx, "salt italian cuisine taste")
		require.NoError(t, err)
		assert.Equal(t, want, gotVector)
	})

	t.Run("returns matches in descending similarity order", func(t *testing.T) {
		service := NewRecordService(RecordServiceParams{
			Codec: taste.NewCodec(embedder, nil), Index: &fakeIndex{}, Embedder: embedder,
			Retrieval: &fakeRetrieval{
				findFunc: func(context.Context, []float32, FindParams) ([]taste.ScoredRecord, error) {
					return []taste.ScoredRecord{
						{Record: taste.Record{ID: "low"}, Score: 0.6},
						{Record: taste.Record{ID: "high"}, Score: 0.9},
					}, nil
				},
			},
		})

		got, err := service.Search(ctx, SearchRecordsParams{UserID: "user-1", Ingredient: "salt"})
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, "high", got[0].Record.ID)
	})
}
