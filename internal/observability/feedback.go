package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// FeedbackMetrics records feedback apply outcomes.
// Feedback: more, less, perfect. Outcomes: updated, not_found, invalid, error.
type FeedbackMetrics interface {
	RecordFeedback(ctx context.Context, feedback, outcome string)
}

// feedbackMetrics implements FeedbackMetrics.
type feedbackMetrics struct {
	applied metric.Int64Counter
}

// NewFeedbackMetrics creates FeedbackMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewFeedbackMetrics(meter metric.Meter) (FeedbackMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	applied, err := meter.Int64Counter(
		MetricNameFeedback,
		metric.WithDescription("Total feedback applications by feedback value and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create feedback counter: %w", err)
	}

	return &feedbackMetrics{applied: applied}, nil
}

func (f *feedbackMetrics) RecordFeedback(ctx context.Context, feedback, outcome string) {
	f.applied.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrFeedback, normalizeFeedback(feedback)),
		attribute.String(AttrOutcome, normalizeFeedbackOutcome(outcome)),
	))
}
