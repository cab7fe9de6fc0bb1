package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/riverqueue/river"

	"github.com/chefmate/tastehub/internal/service"
	"github.com/chefmate/tastehub/pkg/pantry"
)

const (
	defaultPollInterval = 15 * time.Second
	defaultPollLimit    = 100
)

// changeSource is the pantry change feed subset the poller needs.
type changeSource interface {
	GetChanges(ctx context.Context, opts pantry.GetChangesOptions) (*pantry.ChangesResponse, error)
}

// Poller tails the pantry change feed and enqueues one ingestion job per
// event. The cursor lives in memory only; on restart the poller re-reads from
// the feed's current position and job uniqueness absorbs any overlap.
type Poller struct {
	source    changeSource
	inserter  service.IngestJobInserter
	namespace string
	interval  time.Duration
	limit     int
	logger    *slog.Logger

	cursor string
}

// PollerParams configures a Poller.
type PollerParams struct {
	Source    changeSource
	Inserter  service.IngestJobInserter
	Namespace string
	// Interval between polls (default 15s).
	Interval time.Duration
	// Limit is the page size per poll (default 100).
	Limit  int
	Logger *slog.Logger
}

// NewPoller creates a change feed poller.
func NewPoller(p PollerParams) *Poller {
	interval := p.Interval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	limit := p.Limit
	if limit <= 0 {
		limit = defaultPollLimit
	}

	logger := p.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		source:    p.Source,
		inserter:  p.Inserter,
		namespace: p.Namespace,
		interval:  interval,
		limit:     limit,
		logger:    logger,
	}
}

// Run polls until ctx is cancelled. Feed errors are logged and retried on the
// next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.pollOnce(ctx); err != nil {
				p.logger.Error("poller: poll failed", "error", err)
			}
		}
	}
}

// pollOnce drains available pages from the current cursor and enqueues jobs.
func (p *Poller) pollOnce(ctx context.Context) error {
	for {
		resp, err := p.source.GetChanges(ctx, pantry.GetChangesOptions{
			Cursor: p.cursor,
			Limit:  p.limit,
		})
		if err != nil {
			return err
		}

		for _, change := range resp.Data {
			args := service.TasteIngestArgs{
				Operation:  change.Operation,
				DocumentID: change.DocumentID,
				Document:   change.Document,
				Namespace:  p.namespace,
			}

			if _, err := p.inserter.Insert(ctx, args, &river.InsertOpts{Queue: service.IngestQueueName}); err != nil {
				// Skip this event and keep going; the next feed overlap or a
				// fresh change for the document will pick it up again.
				p.logger.Error("poller: enqueue failed",
					"document_id", change.DocumentID, "operation", change.Operation, "error", err)
			}
		}

		if resp.NextCursor == "" || resp.NextCursor == p.cursor {
			return nil
		}

		p.cursor = resp.NextCursor

		if len(resp.Data) < p.limit {
			return nil
		}
	}
}
