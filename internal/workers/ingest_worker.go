// Package workers provides River job workers for change event ingestion.
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"golang.org/x/time/rate"

	"github.com/chefmate/tastehub/internal/ingest"
	"github.com/chefmate/tastehub/internal/service"
)

const ingestTimeout = 30 * time.Second

// IngestWorker indexes change stream events from the job queue. A shared rate
// limiter throttles the embedding provider across all concurrent jobs.
type IngestWorker struct {
	river.WorkerDefaults[service.TasteIngestArgs]

	processor *ingest.Processor
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// NewIngestWorker creates a worker that waits on the limiter, then processes
// the event. limiter may be nil to disable throttling; logger may be nil.
func NewIngestWorker(processor *ingest.Processor, limiter *rate.Limiter, logger *slog.Logger) *IngestWorker {
	if logger == nil {
		logger = slog.Default()
	}

	return &IngestWorker{
		processor: processor,
		limiter:   limiter,
		logger:    logger,
	}
}

// Timeout limits how long a single ingestion job can run.
func (w *IngestWorker) Timeout(*river.Job[service.TasteIngestArgs]) time.Duration {
	return ingestTimeout
}

// Work processes one change event. Retryable failures (embedding provider,
// index) return an error so River backs off and retries; on the final attempt
// the failure is logged and swallowed so the job does not stay stuck.
func (w *IngestWorker) Work(ctx context.Context, job *river.Job[service.TasteIngestArgs]) error {
	args := job.Args

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter wait: %w", err)
		}
	}

	event := ingest.ChangeEvent{
		Operation:  args.Operation,
		DocumentID: args.DocumentID,
		Document:   args.Document,
	}

	if err := w.processor.Process(ctx, event, args.Namespace); err != nil {
		if job.Attempt >= job.MaxAttempts {
			w.logger.Error("ingest: event failed (final attempt)",
				"document_id", args.DocumentID,
				"operation", args.Operation,
				"error", err,
			)

			return nil
		}

		return fmt.Errorf("process change event: %w", err)
	}

	return nil
}
