package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// SearchMetrics records preference search outcomes and durations.
// Outcomes: hit, no_match, error.
type SearchMetrics interface {
	RecordSearch(ctx context.Context, outcome string, duration time.Duration)
}

// searchMetrics implements SearchMetrics.
type searchMetrics struct {
	searches metric.Int64Counter
	duration metric.Float64Histogram
}

// NewSearchMetrics creates SearchMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewSearchMetrics(meter metric.Meter) (SearchMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	searches, err := meter.Int64Counter(
		MetricNameSearches,
		metric.WithDescription("Total preference searches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create searches counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		MetricNameSearchDuration,
		metric.WithDescription("Preference search duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create search duration histogram: %w", err)
	}

	return &searchMetrics{searches: searches, duration: duration}, nil
}

func (s *searchMetrics) RecordSearch(ctx context.Context, outcome string, duration time.Duration) {
	outcome = normalizeSearchOutcome(outcome)
	s.searches.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
	s.duration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}
