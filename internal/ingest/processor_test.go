package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

type fakeIndex struct {
	upsertFunc func(ctx context.Context, entries []vectorindex.Entry, namespace string) (int, error)
}

func (f *fakeIndex) Upsert(ctx context.Context, entries []vectorindex.Entry, namespace string) (int, error) {
	if f.upsertFunc == nil {
		return len(entries), nil
	}

	return f.upsertFunc(ctx, entries, namespace)
}

func (f *fakeIndex) Query(context.Context, []float32, int, vectorindex.Filter, string) ([]vectorindex.Match, error) {
	return nil, nil
}

func (f *fakeIndex) Fetch(context.Context, string, string) (*vectorindex.Entry, error) {
	return nil, vectorindex.ErrNotFound
}

func tasteDocument() map[string]any {
	return map[string]any{
		"user_id":    "user-1",
		"ingredient": "paprika",
		"amount":     2.0,
		"unit":       "tsp",
		"servings":   4,
		"cuisine":    "hungarian",
	}
}

func insertEvent(id string) ChangeEvent {
	return ChangeEvent{Operation: OpInsert, DocumentID: id, Document: tasteDocument()}
}

func TestProcessor_Process(t *testing.T) {
	ctx := context.Background()
	codec := taste.NewCodec(embeddings.NewMockClient(), nil)

	t.Run("indexes inserts under the event's document id", func(t *testing.T) {
		var upserted []vectorindex.Entry

		index := &fakeIndex{
			upsertFunc: func(_ context.Context, entries []vectorindex.Entry, _ string) (int, error) {
				upserted = append(upserted, entries...)

				return len(entries), nil
			},
		}
		processor := NewProcessor(codec, index, nil, nil)

		err := processor.Process(ctx, insertEvent("rec-1"), "")
		require.NoError(t, err)
		require.Len(t, upserted, 1)
		assert.Equal(t, "rec-1", upserted[0].ID)
	})

	t.Run("acknowledges deletes without touching the index", func(t *testing.T) {
		index := &fakeIndex{
			upsertFunc: func(context.Context, []vectorindex.Entry, string) (int, error) {
				t.Fatal("delete must not write to the index")

				return 0, nil
			},
		}
		processor := NewProcessor(codec, index, nil, nil)

		err := processor.Process(ctx, ChangeEvent{Operation: OpDelete, DocumentID: "rec-1"}, "")
		assert.NoError(t, err)
	})

	t.Run("skips unknown operations", func(t *testing.T) {
		processor := NewProcessor(codec, &fakeIndex{}, nil, nil)

		err := processor.Process(ctx, ChangeEvent{Operation: "truncate", DocumentID: "rec-1"}, "")
		assert.NoError(t, err)
	})

	t.Run("rejected documents are skipped without error", func(t *testing.T) {
		processor := NewProcessor(codec, &fakeIndex{}, nil, nil)

		event := ChangeEvent{Operation: OpInsert, DocumentID: "rec-1", Document: map[string]any{"user_id": "user-1"}}

		err := processor.Process(ctx, event, "")
		assert.NoError(t, err)
	})

	t.Run("index failure is returned for retry", func(t *testing.T) {
		index := &fakeIndex{
			upsertFunc: func(context.Context, []vectorindex.Entry, string) (int, error) {
				return 0, errors.New("connection refused")
			},
		}
		processor := NewProcessor(codec, index, nil, nil)

		err := processor.Process(ctx, insertEvent("rec-1"), "")
		assert.Error(t, err)
	})
}

func TestProcessor_ProcessBatch(t *testing.T) {
	ctx := context.Background()
	codec := taste.NewCodec(embeddings.NewMockClient(), nil)

	t.Run("tallies outcomes and continues past failures", func(t *testing.T) {
		index := &fakeIndex{
			upsertFunc: func(_ context.Context, entries []vectorindex.Entry, _ string) (int, error) {
				if entries[0].ID == "rec-bad-index" {
					return 0, errors.New("connection refused")
				}

				return len(entries), nil
			},
		}
		processor := NewProcessor(codec, index, nil, nil)

		events := []ChangeEvent{
			insertEvent("rec-1"),
			{Operation: OpInsert, DocumentID: "rec-invalid", Document: map[string]any{"user_id": "user-1"}},
			{Operation: OpDelete, DocumentID: "rec-gone"},
			insertEvent("rec-bad-index"),
			insertEvent("rec-2"),
		}

		stats := processor.ProcessBatch(ctx, events, "")

		assert.Equal(t, BatchStats{Indexed: 2, Rejected: 1, Ignored: 1, Failed: 1}, stats)
	})

	t.Run("empty batch yields zero stats", func(t *testing.T) {
		processor := NewProcessor(codec, &fakeIndex{}, nil, nil)

		assert.Equal(t, BatchStats{}, processor.ProcessBatch(ctx, nil, ""))
	})
}
