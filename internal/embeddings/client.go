// Package embeddings defines the embedding function contract shared by all providers.
package embeddings

import "context"

// Client generates a fixed-length embedding vector for a text string.
// Implementations must be deterministic for a given model and free of side effects.
// Every vector written to or queried against the taste index goes through this one
// contract; there is no alternate response shape to probe.
type Client interface {
	CreateEmbedding(ctx context.Context, text string) ([]float32, error)
}
