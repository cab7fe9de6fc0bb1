package tests

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefmate/tastehub/internal/vectorindex"
)

// basisVector returns a 1536-dim unit vector along the given axis. Exact unit
// vectors make query scores predictable up to halfvec rounding.
func basisVector(axis int) []float32 {
	v := make([]float32, 1536)
	v[axis] = 1
	return v
}

// blendVector returns a unit vector with the given weights on axes 0 and 1.
func blendVector(w0, w1 float32) []float32 {
	v := make([]float32, 1536)
	v[0] = w0
	v[1] = w1
	return v
}

func TestPgxStore_Integration(t *testing.T) {
	pool := setupVectorStore(t)
	store := vectorindex.NewPgxStore(pool)
	ctx := context.Background()

	entries := []vectorindex.Entry{
		{
			ID:     "rec-paprika",
			Vector: basisVector(0),
			Metadata: map[string]any{
				"user_id":    "user-1",
				"ingredient": "paprika",
				"cuisine":    "hungarian",
			},
		},
		{
			ID:     "rec-cumin",
			Vector: basisVector(1),
			Metadata: map[string]any{
				"user_id":    "user-2",
				"ingredient": "cumin",
				"cuisine":    "indian",
			},
		},
	}

	count, err := store.Upsert(ctx, entries, testNamespace)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	t.Run("fetch returns the stored entry", func(t *testing.T) {
		entry, err := store.Fetch(ctx, "rec-paprika", testNamespace)
		require.NoError(t, err)

		assert.Equal(t, "rec-paprika", entry.ID)
		assert.Len(t, entry.Vector, 1536)
		assert.InDelta(t, 1.0, entry.Vector[0], 0.001)
		assert.Equal(t, "paprika", entry.Metadata["ingredient"])
		assert.Equal(t, "user-1", entry.Metadata["user_id"])
	})

	t.Run("fetch of a missing id returns ErrNotFound", func(t *testing.T) {
		_, err := store.Fetch(ctx, "rec-missing", testNamespace)
		assert.ErrorIs(t, err, vectorindex.ErrNotFound)
	})

	t.Run("query orders matches by descending similarity", func(t *testing.T) {
		// 3-4-5 blend: cosine 0.8 against axis 0, 0.6 against axis 1.
		matches, err := store.Query(ctx, blendVector(0.8, 0.6), 10, nil, testNamespace)
		require.NoError(t, err)
		require.Len(t, matches, 2)

		assert.Equal(t, "rec-paprika", matches[0].ID)
		assert.InDelta(t, 0.8, matches[0].Score, 0.01)
		assert.Equal(t, "rec-cumin", matches[1].ID)
		assert.InDelta(t, 0.6, matches[1].Score, 0.01)
	})

	t.Run("query filters on metadata fields", func(t *testing.T) {
		matches, err := store.Query(ctx, blendVector(0.8, 0.6), 10,
			vectorindex.Filter{"user_id": "user-2"}, testNamespace)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "rec-cumin", matches[0].ID)

		matches, err = store.Query(ctx, blendVector(0.8, 0.6), 10,
			vectorindex.Filter{"user_id": "user-2", "cuisine": "hungarian"}, testNamespace)
		require.NoError(t, err)
		assert.Empty(t, matches)
	})

	t.Run("query respects the topK limit", func(t *testing.T) {
		matches, err := store.Query(ctx, blendVector(0.8, 0.6), 1, nil, testNamespace)
		require.NoError(t, err)
		require.Len(t, matches, 1)
		assert.Equal(t, "rec-paprika", matches[0].ID)
	})

	t.Run("namespaces are isolated", func(t *testing.T) {
		matches, err := store.Query(ctx, blendVector(0.8, 0.6), 10, nil, "other-kitchen")
		require.NoError(t, err)
		assert.Empty(t, matches)

		_, err = store.Fetch(ctx, "rec-paprika", "other-kitchen")
		assert.ErrorIs(t, err, vectorindex.ErrNotFound)
	})

	t.Run("upsert overwrites an existing id", func(t *testing.T) {
		updated := entries[0]
		updated.Metadata = map[string]any{
			"user_id":    "user-1",
			"ingredient": "smoked paprika",
			"cuisine":    "hungarian",
		}

		count, err := store.Upsert(ctx, []vectorindex.Entry{updated}, testNamespace)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		entry, err := store.Fetch(ctx, "rec-paprika", testNamespace)
		require.NoError(t, err)
		assert.Equal(t, "smoked paprika", entry.Metadata["ingredient"])

		matches, err := store.Query(ctx, blendVector(0.8, 0.6), 10, nil, testNamespace)
		require.NoError(t, err)
		assert.Len(t, matches, 2, "overwrite must not create a new row")
	})

	t.Run("list after pages by id", func(t *testing.T) {
		page, err := store.ListAfter(ctx, testNamespace, "", 1)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "rec-cumin", page[0].ID)

		page, err = store.ListAfter(ctx, testNamespace, page[0].ID, 10)
		require.NoError(t, err)
		require.Len(t, page, 1)
		assert.Equal(t, "rec-paprika", page[0].ID)

		page, err = store.ListAfter(ctx, testNamespace, page[0].ID, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})
}
