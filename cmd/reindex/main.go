// reindex recomputes embeddings for every stored taste record in a namespace.
// Run it after switching embedding model or dimensions: stored vectors and
// query vectors must come from the same model for cosine scores to mean
// anything. Metadata is preserved; only derived text and vector are rebuilt.
package main

import (
	"context"
	"log/slog"
	"os"

	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/chefmate/tastehub/internal/config"
	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/internal/taste"
	"github.com/chefmate/tastehub/internal/vectorindex"
	"github.com/chefmate/tastehub/pkg/database"
)

const (
	batchSize   = 100
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

	var reindexed, failed int

	afterID := ""

	for {
		entries, err := index.ListAfter(ctx, cfg.Namespace, afterID, batchSize)
		if err != nil {
			slog.Error("Failed to list records", "error", err, "after_id", afterID)

			return exitFailure
		}

		if len(entries) == 0 {
			break
		}

		for _, entry := range entries {
			record := taste.Decode(entry.ID, entry.Metadata)

			fresh, err := codec.EncodeRecord(ctx, record)
			if err != nil {
				slog.Error("Failed to re-embed record", "error", err, "id", entry.ID)
				failed++

				continue
			}

			if _, err := index.Upsert(ctx, []vectorindex.Entry{*fresh}, cfg.Namespace); err != nil {
				slog.Error("Failed to upsert record", "error", err, "id", entry.ID)
				failed++

				continue
			}

			reindexed++
		}

		afterID = entries[len(entries)-1].ID

		slog.Info("Reindexed batch", "count", len(entries), "after_id", afterID)

		if len(entries) < batchSize {
			break
		}
	}

	slog.Info("Reindex complete", "reindexed", reindexed, "failed", failed)

	if failed > 0 {
		return exitFailure
	}

	return exitSuccess
}
