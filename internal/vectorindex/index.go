// Package vectorindex defines the k-NN index contract used by the taste store and
// its Postgres/pgvector implementation. The index is keyed by record id within a
// namespace and stores a vector plus loosely-typed metadata.
package vectorindex

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Fetch when no entry exists for the id and namespace.
var ErrNotFound = errors.New("vectorindex: entry not found")

// ErrInvalidVector is returned when a query or upsert vector is empty.
var ErrInvalidVector = errors.New("vectorindex: vector must be non-empty")

// Entry is one record to write: id, embedding vector, and metadata.
type Entry struct {
	ID       string
	Vector   []float32
	Metadata map[string]any
}

// Match is one query hit: id, similarity score in [0,1], and the stored metadata.
type Match struct {
	ID       string
	Score    float64
	Metadata map[string]any
}

// Filter is an exact-match metadata filter; fields are ANDed.
type Filter map[string]any

// And returns the conjunction of the given filters. Later filters win on
// duplicate fields. Nil filters are skipped; the result is never nil.
func And(filters ...Filter) Filter {
	out := Filter{}
	for _, f := range filters {
		for k, v := range f {
			out[k] = v
		}
	}

	return out
}

// Index is the external k-NN store: upsert by id, similarity query with metadata
// filter, and point fetch. Implementations order Query results by descending
// similarity.
type Index interface {
	// Upsert writes the entries into the namespace, replacing any existing entry
	// with the same id, and returns the number of entries written.
	Upsert(ctx context.Context, entries []Entry, namespace string) (int, error)

	// Query returns up to topK nearest neighbors of vector in the namespace,
	// restricted to entries whose metadata matches every field of filter exactly.
	Query(ctx context.Context, vector []float32, topK int, filter Filter, namespace string) ([]Match, error)

	// Fetch returns the stored entry for id in the namespace, or ErrNotFound.
	Fetch(ctx context.Context, id, namespace string) (*Entry, error)
}
