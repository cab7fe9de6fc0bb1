package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
)

const defaultQueryTopK = 5

// PgxStore implements Index on Postgres with pgvector. Vectors are stored as
// halfvec (2 bytes per dimension); similarity is cosine, score = 1 - distance.
// Metadata lives in a jsonb column so the exact-match filter grammar works for
// any field without schema changes.
type PgxStore struct {
	db *pgxpool.Pool
}

// NewPgxStore creates a pgvector-backed index on the given pool.
func NewPgxStore(db *pgxpool.Pool) *PgxStore {
	return &PgxStore{db: db}
}

var _ Index = (*PgxStore)(nil)

// Upsert writes entries into the namespace in one batch. On conflict the
// embedding, metadata, and updated_at are replaced. Returns the number of
// entries written.
func (s *PgxStore) Upsert(ctx context.Context, entries []Entry, namespace string) (int, error) {
	if len(entries) == 0 {
		return 0, nil
	}

	now := time.Now()
	batch := &pgx.Batch{}

	for _, e := range entries {
		if e.ID == "" {
			return 0, fmt.Errorf("vectorindex upsert: entry id must be non-empty")
		}

		if len(e.Vector) == 0 {
			return 0, fmt.Errorf("vectorindex upsert %q: %w", e.ID, ErrInvalidVector)
		}

		batch.Queue(`
			INSERT INTO taste_vectors (namespace, id, embedding, metadata, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
			ON CONFLICT (namespace, id)
			DO UPDATE SET embedding = EXCLUDED.embedding, metadata = EXCLUDED.metadata, updated_at = $5`,
			namespace, e.ID, pgvector.NewHalfVector(e.Vector), e.Metadata, now,
		)
	}

	results := s.db.SendBatch(ctx, batch)
	defer results.Close()

	written := 0

	for range entries {
		if _, err := results.Exec(); err != nil {
			return written, fmt.Errorf("vectorindex upsert: %w", err)
		}

		written++
	}

	return written, nil
}

// Query returns up to topK nearest neighbors ordered by descending similarity.
// Filter fields are matched against the jsonb metadata as text equality, ANDed.
func (s *PgxStore) Query(
	ctx context.Context, vector []float32, topK int, filter Filter, namespace string,
) ([]Match, error) {
	if len(vector) == 0 {
		return nil, ErrInvalidVector
	}

	if topK <= 0 {
		topK = defaultQueryTopK
	}

	sql := `SELECT id, (1 - (embedding <=> $1))::float8 AS score, metadata
		FROM taste_vectors WHERE namespace = $2`
	args := []any{pgvector.NewHalfVector(vector), namespace}

	// Deterministic clause order keeps query plans and logs stable.
	fields := make([]string, 0, len(filter))
	for k := range filter {
		fields = append(fields, k)
	}

	sort.Strings(fields)

	for _, field := range fields {
		sql += fmt.Sprintf(" AND metadata->>$%d = $%d", len(args)+1, len(args)+2)
		args = append(args, field, filterValueText(filter[field]))
	}

	sql += fmt.Sprintf(" ORDER BY embedding <=> $1 LIMIT $%d", len(args)+1)
	args = append(args, topK)

	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("vectorindex query: %w", err)
	}
	defer rows.Close()

	var matches []Match

	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.ID, &m.Score, &m.Metadata); err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}

		matches = append(matches, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating matches: %w", err)
	}

	return matches, nil
}

// Fetch returns the stored entry for id in the namespace.
func (s *PgxStore) Fetch(ctx context.Context, id, namespace string) (*Entry, error) {
	var (
		vec pgvector.HalfVector
		md  map[string]any
	)

	err := s.db.QueryRow(ctx,
		`SELECT embedding, metadata FROM taste_vectors WHERE namespace = $1 AND id = $2`,
		namespace, id,
	).Scan(&vec, &md)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("vectorindex fetch: %w", err)
	}

	return &Entry{ID: id, Vector: vec.Slice(), Metadata: md}, nil
}

// ListAfter returns up to limit entries in the namespace with id greater than
// afterID, ordered by id. Used for keyset scans (e.g. full reindex); pass ""
// to start from the beginning.
func (s *PgxStore) ListAfter(ctx context.Context, namespace, afterID string, limit int) ([]Entry, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, embedding, metadata FROM taste_vectors
		WHERE namespace = $1 AND id > $2
		ORDER BY id
		LIMIT $3`,
		namespace, afterID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("vectorindex list: %w", err)
	}
	defer rows.Close()

	var entries []Entry

	for rows.Next() {
		var (
			e   Entry
			vec pgvector.HalfVector
		)

		if err := rows.Scan(&e.ID, &vec, &e.Metadata); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}

		e.Vector = vec.Slice()
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}

	return entries, nil
}

// filterValueText renders a filter value the way jsonb ->> renders the stored
// one, so equality compares like for like.
func filterValueText(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		if val {
			return "true"
		}

		return "false"
	default:
		return fmt.Sprintf("%v", val)
	}
}
