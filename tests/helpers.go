// Package tests provides integration coverage against a real pgvector
// Postgres started with testcontainers. The suite skips itself when Docker is
// unavailable, so unit test runs stay self-contained.
package tests

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	pgxvec "github.com/pgvector/pgvector-go/pgx"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/chefmate/tastehub/internal/embeddings"
	"github.com/chefmate/tastehub/pkg/database"
)

const (
	testNamespace = "kitchen"

	// pgvectorImage ships Postgres with the vector extension preinstalled.
	pgvectorImage = "pgvector/pgvector:pg16"
)

// setupVectorStore starts a pgvector Postgres container, applies the schema
// from migrations/, and returns a pool with pgvector types registered. The
// test is skipped when Docker is not available.
func setupVectorStore(t *testing.T) *pgxpool.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, pgvectorImage,
		tcpostgres.WithDatabase("tastehub_test"),
		tcpostgres.WithUsername("tastehub"),
		tcpostgres.WithPassword("tastehub"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Skipf("skipping: could not start postgres container (is Docker running?): %v", err)
	}

	t.Cleanup(func() {
		if terminateErr := container.Terminate(ctx); terminateErr != nil {
			t.Logf("failed to terminate postgres container: %v", terminateErr)
		}
	})

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "container connection string")

	pool, err := database.NewPostgresPool(ctx, connStr,
		database.WithAfterConnect(pgxvec.RegisterTypes),
	)
	require.NoError(t, err, "connect to test database")

	t.Cleanup(pool.Close)

	applyMigrations(t, ctx, pool)

	return pool
}

// applyMigrations runs every .sql file under migrations/ in lexical order.
// Files contain no parameters, so each one executes as a single multi-statement
// simple-protocol batch.
func applyMigrations(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()

	paths, err := filepath.Glob(filepath.Join("..", "migrations", "*.sql"))
	require.NoError(t, err)
	require.NotEmpty(t, paths, "no migration files found")

	sort.Strings(paths)

	for _, path := range paths {
		ddl, err := os.ReadFile(path)
		require.NoError(t, err, "read migration %s", path)

		_, err = pool.Exec(ctx, string(ddl))
		require.NoError(t, err, "apply migration %s", path)
	}
}

// keywordEmbedder embeds only the first whitespace-separated token of the
// text. Every phrasing that leads with the same ingredient maps to the same
// vector, which turns cosine retrieval into deterministic keyword matching
// for end-to-end assertions. Unrelated tokens hash to near-orthogonal vectors
// that land well below the score threshold.
type keywordEmbedder struct {
	inner *embeddings.MockClient
}

func newKeywordEmbedder() keywordEmbedder {
	return keywordEmbedder{inner: embeddings.NewMockClient()}
}

func (e keywordEmbedder) CreateEmbedding(ctx context.Context, text string) ([]float32, error) {
	token, _, _ := strings.Cut(strings.TrimSpace(text), " ")
	return e.inner.CreateEmbedding(ctx, token)
}
