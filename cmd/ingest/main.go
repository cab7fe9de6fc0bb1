// ingest bulk-imports taste documents from the pantry service into the vector
// index. It pages through GET /v1/documents, embeds each document, and upserts
// it synchronously. Run this for the initial load; the API server's change feed
// poller keeps the index current afterwards.
package main

import (
	"context"
	"log/slog"
	"os"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/chefmate/tastehub/internal/config"
	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/ingest"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
	"github.com/chefmate/tastehub/pkg/database"
	"github.com/chefmate/tastehub/pkg/pantry"
)

const (
	pageSize    = 100
	exitSuccess = 0
	exitFailure = 1
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)

		return exitFailure
	}

	if cfg.PantryBaseURL == "" {
		slog.Error("PANTRY_BASE_URL is required")

		return exitFailure
	}

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL,
		database.WithAfterConnect(pgxvec.RegisterTypes),
		database.WithMaxConns(cfg.DatabaseMaxConns),
	)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)

		return exitFailure
	}
	defer db.Close()

	embedder, err := embeddings.NewProviderClient(ctx, embeddings.ProviderConfig{
		Provider:   cfg.EmbeddingProvider,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
	})
	if err != nil {
		slog.Error("Failed to create embedding client", "error", err)

		return exitFailure
	}

	codec := taste.NewCodec(embedder, slog.Default())
	index := vectorindex.NewPgxStore(db)
	processor := ingest.NewProcessor(codec, index, nil, slog.Default())
	source := pantry.NewClient(cfg.PantryBaseURL, cfg.PantryAPIKey)

	var total ingest.BatchStats

	cursor := ""

	for {
		page, err := source.ListDocuments(ctx, pantry.ListDocumentsOptions{Cursor: cursor, Limit: pageSize})
		if err != nil {
			slog.Error("Failed to list documents", "error", err, "cursor", cursor)

			return exitFailure
		}

		if len(page.Data) == 0 {
			break
		}

		events := make([]ingest.ChangeEvent, 0, len(page.Data))
		for _, doc := range page.Data {
			events = append(events, ingest.ChangeEvent{
				Operation:  ingest.OpInsert,
				DocumentID: doc.ID(),
				Document:   doc,
			})
		}

		stats := processor.ProcessBatch(ctx, events, cfg.Namespace)
		total.Indexed += stats.Indexed
		total.Rejected += stats.Rejected
		total.Ignored += stats.Ignored
		total.Failed += stats.Failed

		slog.Info("Imported page",
			"indexed", stats.Indexed,
			"rejected", stats.Rejected,
			"failed", stats.Failed,
		)

		if page.NextCursor == "" || page.NextCursor == cursor || len(page.Data) < pageSize {
			break
		}

		cursor = page.NextCursor
	}

	slog.Info("Import complete",
		"indexed", total.Indexed,
		"rejected", total.Rejected,
		"ignored", total.Ignored,
		"failed", total.Failed,
	)

	if total.Failed > 0 {
		return exitFailure
	}

	return exitSuccess
}
