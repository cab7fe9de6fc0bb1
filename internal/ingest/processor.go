// Package ingest turns change stream events from the source document store
// into vector index writes.
package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chefmate/tastehub/internal/observability"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
)

// Change stream operation types.
const (
	OpInsert  = "insert"
	OpUpdate  = "update"
	OpReplace = "replace"
	OpDelete  = "delete"
)

// Event outcomes, also used as metric attribute values.
const (
	outcomeIndexed  = "indexed"
	outcomeRejected = "rejected"
	outcomeIgnored  = "ignored"
	outcomeError    = "error"
)

// ChangeEvent is one change stream notification from the source store.
type ChangeEvent struct {
	Operation  string         `json:"operation"`
	DocumentID string         `json:"document_id"`
	Document   map[string]any `json:"document,omitempty"`
}

// BatchStats summarizes one ProcessBatch run.
type BatchStats struct {
	Indexed  int
	Rejected int
	Ignored  int
	Failed   int
}

// Processor encodes change events and writes them to the vector index.
// Deletions are acknowledged without touching the index: preferences persist
// until overwritten by a newer observation for the same document id.
type Processor struct {
	codec   *taste.Codec
	index   vectorindex.Index
	metrics observability.IngestMetrics
	logger  *slog.Logger
}

// NewProcessor creates an ingestion processor. Metrics may be nil.
func NewProcessor(codec *taste.Codec, index vectorindex.Index, metrics observability.IngestMetrics, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}

	return &Processor{codec: codec, index: index, metrics: metrics, logger: logger}
}

// Process handles one change event. Rejected documents (missing required
// fields, uncoercible values) are logged and skipped without error so the
// stream keeps moving; embedding or index failures return an error so the job
// layer can retry.
func (p *Processor) Process(ctx context.Context, event ChangeEvent, namespace string) error {
	_, err := p.processOne(ctx, event, namespace)

	return err
}

// processOne handles one event and reports its outcome for batch accounting.
func (p *Processor) processOne(ctx context.Context, event ChangeEvent, namespace string) (string, error) {
	switch event.Operation {
	case OpInsert, OpUpdate, OpReplace:
		return p.indexDocument(ctx, event, namespace)
	case OpDelete:
		p.logger.Debug("ingest: delete acknowledged, preference retained", "document_id", event.DocumentID)
		p.recordEvent(ctx, event.Operation, outcomeIgnored)

		return outcomeIgnored, nil
	default:
		p.logger.Warn("ingest: unknown operation skipped",
			"operation", event.Operation, "document_id", event.DocumentID)
		p.recordEvent(ctx, event.Operation, outcomeIgnored)

		return outcomeIgnored, nil
	}
}

func (p *Processor) indexDocument(ctx context.Context, event ChangeEvent, namespace string) (string, error) {
	fields := make(map[string]any, len(event.Document)+1)
	for k, v := range event.Document {
		fields[k] = v
	}

	if event.DocumentID != "" {
		fields["id"] = event.DocumentID
	}

	embedStart := time.Now()

	entry, err := p.codec.Encode(ctx, fields)
	if err != nil {
		if errors.Is(err, taste.ErrRejected) {
			p.logger.Warn("ingest: document rejected",
				"document_id", event.DocumentID, "operation", event.Operation, "error", err)
			p.recordEvent(ctx, event.Operation, outcomeRejected)

			return outcomeRejected, nil
		}

		p.recordEmbedding(ctx, time.Since(embedStart), outcomeError)
		p.recordEvent(ctx, event.Operation, outcomeError)

		return outcomeError, err
	}

	p.recordEmbedding(ctx, time.Since(embedStart), outcomeIndexed)

	if _, err := p.index.Upsert(ctx, []vectorindex.Entry{*entry}, namespace); err != nil {
		p.recordEvent(ctx, event.Operation, outcomeError)

		return outcomeError, err
	}

	p.logger.Info("ingest: document indexed",
		"document_id", event.DocumentID, "operation", event.Operation)
	p.recordEvent(ctx, event.Operation, outcomeIndexed)

	return outcomeIndexed, nil
}

// ProcessBatch handles a slice of events in order, continuing past per-event
// failures. Used by the bulk loader and the poller, where one bad document
// must not stall the rest of the batch.
func (p *Processor) ProcessBatch(ctx context.Context, events []ChangeEvent, namespace string) BatchStats {
	var stats BatchStats

	for _, event := range events {
		outcome, err := p.processOne(ctx, event, namespace)
		if err != nil {
			p.logger.Error("ingest: batch event failed",
				"document_id", event.DocumentID, "operation", event.Operation, "error", err)
		}

		switch outcome {
		case outcomeIndexed:
			stats.Indexed++
		case outcomeRejected:
			stats.Rejected++
		case outcomeIgnored:
			stats.Ignored++
		default:
			stats.Failed++
		}
	}

	return stats
}

func (p *Processor) recordEvent(ctx context.Context, operation, outcome string) {
	if p.metrics != nil {
		p.metrics.RecordEvent(ctx, operation, outcome)
	}
}

func (p *Processor) recordEmbedding(ctx context.Context, duration time.Duration, outcome string) {
	if p.metrics != nil {
		p.metrics.RecordEmbeddingDuration(ctx, duration, outcome)
	}
}
