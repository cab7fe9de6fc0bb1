package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// IngestMetrics records change stream ingestion metrics (events, embedding
// latency, job queue depth).
type IngestMetrics interface {
	RecordEvent(ctx context.Context, operation, outcome string)
	RecordEmbeddingDuration(ctx context.Context, duration time.Duration, outcome string)
	RecordQueueDepth(ctx context.Context, queue string, depth int64)
}

// ingestMetrics implements IngestMetrics.
type ingestMetrics struct {
	events            metric.Int64Counter
	embeddingDuration metric.Float64Histogram
	queueDepth        metric.Int64Gauge
}

// NewIngestMetrics creates IngestMetrics. Returns (nil, nil) when meter is nil (metrics disabled).
func NewIngestMetrics(meter metric.Meter) (IngestMetrics, error) {
	if meter == nil {
		//nolint:nilnil // intentional: callers use "if metrics != nil" when metrics disabled
		return nil, nil
	}

	events, err := meter.Int64Counter(
		MetricNameIngestEvents,
		metric.WithDescription("Total change events processed by operation and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("create ingest events counter: %w", err)
	}

	embeddingDuration, err := meter.Float64Histogram(
		MetricNameEmbeddingDuration,
		metric.WithDescription("Embedding call duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding duration histogram: %w", err)
	}

	queueDepth, err := meter.Int64Gauge(
		MetricNameQueueDepth,
		metric.WithDescription("Available jobs in the ingest queue (polled)"),
	)
	if err != nil {
		return nil, fmt.Errorf("create queue depth gauge: %w", err)
	}

	return &ingestMetrics{
		events:            events,
		embeddingDuration: embeddingDuration,
		queueDepth:        queueDepth,
	}, nil
}

func (i *ingestMetrics) RecordEvent(ctx context.Context, operation, outcome string) {
	i.events.Add(ctx, 1, metric.WithAttributes(
		attribute.String(AttrOperation, normalizeOperation(operation)),
		attribute.String(AttrOutcome, normalizeIngestOutcome(outcome)),
	))
}

func (i *ingestMetrics) RecordEmbeddingDuration(ctx context.Context, duration time.Duration, outcome string) {
	i.embeddingDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String(AttrOutcome, normalizeIngestOutcome(outcome)),
	))
}

func (i *ingestMetrics) RecordQueueDepth(ctx context.Context, queue string, depth int64) {
	i.queueDepth.Record(ctx, depth, metric.WithAttributes(attribute.String(AttrQueue, queue)))
}
