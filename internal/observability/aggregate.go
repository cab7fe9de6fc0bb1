package observability

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all taste hub metric collectors. When metrics are disabled,
// all fields are nil. Components that accept an interface (APIMetrics,
// SearchMetrics, FeedbackMetrics, IngestMetrics, CacheMetrics) receive the
// corresponding field; they already handle nil.
type Metrics struct {
	API      APIMetrics
	Search   SearchMetrics
	Feedback FeedbackMetrics
	Ingest   IngestMetrics
	Cache    CacheMetrics
}

// NewMetrics creates all metric collectors from the given meter.
// Returns (nil, nil) when meter is nil (metrics disabled).
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	api, err := NewAPIMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("api metrics: %w", err)
	}

	search, err := NewSearchMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("search metrics: %w", err)
	}

	feedback, err := NewFeedbackMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("feedback metrics: %w", err)
	}

	ingest, err := NewIngestMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("ingest metrics: %w", err)
	}

	cache, err := NewCacheMetrics(meter)
	if err != nil {
		return nil, fmt.Errorf("cache metrics: %w", err)
	}

	return &Metrics{
		API:      api,
		Search:   search,
		Feedback: feedback,
		Ingest:   ingest,
		Cache:    cache,
	}, nil
}
