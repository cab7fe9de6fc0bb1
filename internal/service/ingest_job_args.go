package service

import (
	"context"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"
)

const (
	tasteIngestKind = "taste_ingest"
	// IngestQueueName is the River queue used for change event ingestion jobs.
	IngestQueueName = "ingest"
)

// IngestJobInserter inserts ingestion jobs (e.g. River client). Used by the
// changes handler and the bulk loader to enqueue.
type IngestJobInserter interface {
	Insert(ctx context.Context, args river.JobArgs, opts *river.InsertOpts) (*rivertype.JobInsertResult, error)
}

// TasteIngestArgs is the job payload for indexing one change stream event.
// Uniqueness is by DocumentID so a burst of events for the same source
// document collapses to the newest pending job.
type TasteIngestArgs struct {
	// Operation is the change type: insert, update, replace, or delete.
	Operation string `json:"operation"`
	// DocumentID is the source document's identifier.
	DocumentID string `json:"document_id" river:"unique"`
	// Document is the full source document for non-delete operations.
	Document map[string]any `json:"document,omitempty"`
	// Namespace selects the index namespace ("" is the default namespace).
	Namespace string `json:"namespace,omitempty"`
}

// Kind returns the River job kind.
func (TasteIngestArgs) Kind() string { return tasteIngestKind }

var _ river.JobArgs = TasteIngestArgs{}
