package taste

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefmate/tastehub/internal/embeddings"
)

type failingEmbedder struct{}

func (failingEmbedder) CreateEmbedding(context.Context, string) ([]float32, error) {
	return nil, errors.New("provider down")
}

func validDocument() map[string]any {
	return map[string]any{
		"id":         "rec-1",
		"user_id":    "user-1",
		"ingredient": "paprika",
		"amount":     2.0,
		"unit":       "tsp",
		"servings":   4,
		"cuisine":    "hungarian",
	}
}

func TestCodec_Encode(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec(embeddings.NewMockClient(), nil)

	t.Run("encodes a valid document", func(t *testing.T) {
		entry, err := codec.Encode(ctx, validDocument())
		require.NoError(t, err)

		assert.Equal(t, "rec-1", entry.ID)
		assert.Len(t, entry.Vector, 1536)
		assert.Equal(t, "user-1", entry.Metadata[FieldUserID])
		assert.Equal(t, "paprika", entry.Metadata[FieldIngredient])
		assert.Equal(t, 2.0, entry.Metadata[FieldAmount])
		assert.Equal(t, "tsp", entry.Metadata[FieldUnit])
		assert.Equal(t, 4, entry.Metadata[FieldServings])
		assert.Equal(t, "hungarian", entry.Metadata[FieldCuisine])
		assert.Equal(t, 1.0, entry.Metadata[FieldFeedbackWeight])
		assert.Equal(t, "paprika 2tsp for 4 servings in hungarian cuisine", entry.Metadata[FieldOriginalText])
	})

	t.Run("accepts _id as the identifier", func(t *testing.T) {
		doc := validDocument()
		delete(doc, "id")
		doc["_id"] = "rec-2"

		entry, err := codec.Encode(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, "rec-2", entry.ID)
	})

	t.Run("coerces numeric strings", func(t *testing.T) {
		doc := validDocument()
		doc["amount"] = "2.5"
		doc["servings"] = "6"

		entry, err := codec.Encode(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, 2.5, entry.Metadata[FieldAmount])
		assert.Equal(t, 6, entry.Metadata[FieldServings])
	})

	t.Run("defaults unit and feedback_weight when absent", func(t *testing.T) {
		doc := validDocument()
		delete(doc, "unit")

		entry, err := codec.Encode(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, "", entry.Metadata[FieldUnit])
		assert.Equal(t, DefaultFeedbackWeight, entry.Metadata[FieldFeedbackWeight])
	})

	t.Run("keeps an explicit feedback_weight", func(t *testing.T) {
		doc := validDocument()
		doc["feedback_weight"] = 3.5

		entry, err := codec.Encode(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, 3.5, entry.Metadata[FieldFeedbackWeight])
	})

	t.Run("falls back to default on uncoercible feedback_weight", func(t *testing.T) {
		doc := validDocument()
		doc["feedback_weight"] = "high"

		entry, err := codec.Encode(ctx, doc)
		require.NoError(t, err)
		assert.Equal(t, DefaultFeedbackWeight, entry.Metadata[FieldFeedbackWeight])
	})

	t.Run("rejects documents with missing required fields", func(t *testing.T) {
		for _, field := range []string{"id", "user_id", "ingredient", "amount", "servings", "cuisine"} {
			t.Run("missing "+field, func(t *testing.T) {
				doc := validDocument()
				delete(doc, field)

				_, err := codec.Encode(ctx, doc)
				assert.ErrorIs(t, err, ErrRejected)
			})
		}
	})

	t.Run("rejects non-numeric amount", func(t *testing.T) {
		doc := validDocument()
		doc["amount"] = "a pinch"

		_, err := codec.Encode(ctx, doc)
		assert.ErrorIs(t, err, ErrRejected)
	})

	t.Run("rejects non-positive and fractional servings", func(t *testing.T) {
		for _, servings := range []any{0, -2, 2.5} {
			doc := validDocument()
			doc["servings"] = servings

			_, err := codec.Encode(ctx, doc)
			assert.ErrorIs(t, err, ErrRejected)
		}
	})

	t.Run("embedding failure is not a rejection", func(t *testing.T) {
		broken := NewCodec(failingEmbedder{}, nil)

		_, err := broken.Encode(ctx, validDocument())
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrRejected)
	})
}

func TestCodec_EncodeRecord(t *testing.T) {
	ctx := context.Background()
	codec := NewCodec(embeddings.NewMockClient(), nil)

	record := Record{
		ID:             "rec-1",
		UserID:         "user-1",
		Ingredient:     "soy sauce",
		Amount:         30.25,
		Unit:           "ml",
		Servings:       2,
		Cuisine:        "japanese",
		FeedbackWeight: 2.0,
		// Stale text from before an amount change; must be recomputed.
		OriginalText: "soy sauce 25ml for 2 servings in japanese cuisine",
	}

	entry, err := codec.EncodeRecord(ctx, record)
	require.NoError(t, err)

	assert.Equal(t, "soy sauce 30.25ml for 2 servings in japanese cuisine", entry.Metadata[FieldOriginalText])

	fresh, err := embeddings.NewMockClient().CreateEmbedding(ctx, "soy sauce 30.25ml for 2 servings in japanese cuisine")
	require.NoError(t, err)
	assert.Equal(t, fresh, entry.Vector)
}

func TestDecode(t *testing.T) {
	t.Run("round-trips a record through metadata", func(t *testing.T) {
		original := Record{
			ID:             "rec-9",
			UserID:         "user-3",
			Ingredient:     "cumin",
			Amount:         1.5,
			Unit:           "tsp",
			Servings:       3,
			Cuisine:        "indian",
			FeedbackWeight: 4.0,
			OriginalText:   "cumin 1.5tsp for 3 servings in indian cuisine",
		}

		decoded := Decode(original.ID, original.Metadata())
		assert.Equal(t, original, decoded)
	})

	t.Run("accepts JSON-decoded numeric shapes", func(t *testing.T) {
		decoded := Decode("rec-10", map[string]any{
			FieldUserID:         "user-4",
			FieldAmount:         float64(200),
			FieldServings:       float64(4),
			FieldFeedbackWeight: float64(1),
		})

		assert.Equal(t, 200.0, decoded.Amount)
		assert.Equal(t, 4, decoded.Servings)
		assert.Equal(t, 1.0, decoded.FeedbackWeight)
	})

	t.Run("tolerates missing and mistyped fields", func(t *testing.T) {
		decoded := Decode("rec-11", map[string]any{
			FieldIngredient: 42,
			FieldServings:   "many",
		})

		assert.Equal(t, "rec-11", decoded.ID)
		assert.Empty(t, decoded.Ingredient)
		assert.Zero(t, decoded.Servings)
	})
}

func TestDerivedText(t *testing.T) {
	tests := []struct {
		name   string
		record Record
		want   string
	}{
		{
			name: "whole amount renders without decimals",
			record: Record{
				Ingredient: "salt", Amount: 5, Unit: "g", Servings: 4, Cuisine: "italian",
			},
			want: "salt 5g for 4 servings in italian cuisine",
		},
		{
			name: "fractional amount keeps its precision",
			record: Record{
				Ingredient: "chili flakes", Amount: 0.25, Unit: "tsp", Servings: 2, Cuisine: "thai",
			},
			want: "chili flakes 0.25tsp for 2 servings in thai cuisine",
		},
		{
			name: "empty unit joins amount and 'for' directly",
			record: Record{
				Ingredient: "eggs", Amount: 3, Unit: "", Servings: 4, Cuisine: "french",
			},
			want: "eggs 3 for 4 servings in french cuisine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.record.DerivedText())
		})
	}
}
