package service

import (
	"context"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/observability"
	"github.com/chefmate/tastehub/pkg/cache"
)

const queryEmbeddingCacheName = "query_embedding"

// CachingEmbedder wraps an embedding client with an LRU loader cache so
// repeated probe and query texts (hot ingredients, common query phrasings) hit
// the provider once. Concurrent misses for the same text are coalesced by the
// underlying loader cache.
type CachingEmbedder struct {
	inner   embeddings.Client
	cache   *cache.LoaderCache[string, []float32]
	metrics observability.CacheMetrics
}

// NewCachingEmbedder creates a caching wrapper. Metrics may be nil.
func NewCachingEmbedder(
	inner embeddings.Client,
	loaderCache *cache.LoaderCache[string, []float32],
	metrics observability.CacheMetrics,
) *CachingEmbedder {
	return &CachingEmbedder{inner: inner, cache: loaderCache, metrics: metrics}
}

var _ embeddings.Client = (*CachingEmbedder)(nil)

// CreateEmbedding returns the cached vector for text, loading it from the
// wrapped client on miss.
func (c *CachingEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	vec, hit, err := c.cache.GetWithStats(ctx, text, func(ctx context.Context, key string) ([]float32, error) {
		return c.inner.CreateEmbedding(ctx, key)
	})
	if err != nil {
		return nil, err
	}

	if c.metrics != nil {
		if hit {
			c.metrics.RecordHit(ctx, queryEmbeddingCacheName)
		} else {
			c.metrics.RecordMiss(ctx, queryEmbeddingCacheName)
		}
	}

	return vec, nil
}
