package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the documents table. It is safe to run repeatedly.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	path        TEXT PRIMARY KEY,
	collection  TEXT        NOT NULL,
	id          TEXT        NOT NULL,
	data        JSONB       NOT NULL,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
ALTER TABLE documents ADD COLUMN IF NOT EXISTS seq BIGSERIAL;
DROP INDEX IF EXISTS documents_collection_created_idx;
CREATE INDEX IF NOT EXISTS documents_collection_order_idx
	ON documents (collection, created_at DESC, seq DESC);
`

// listQuery returns a collection newest first. seq breaks ties between
// documents created in the same instant, matching MemoryStore.
const listQuery = `SELECT id, path, data, created_at, updated_at
	 FROM documents WHERE collection = $1
	 ORDER BY created_at DESC, seq DESC`

// PostgresStore implements Store using PostgreSQL as the source of truth.
// Document bodies are stored as JSONB.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies Schema.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, Schema)
	return err
}

func (s *PostgresStore) Append(ctx context.Context, collection string, data map[string]any) (string, error) {
	if err := validCollection(collection); err != nil {
		return "", err
	}
	collection = strings.Trim(collection, "/")
	body, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}

	id := uuid.New().String()
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (path, collection, id, data)
		 VALUES ($1, $2, $3, $4::JSONB)`,
		Join(collection, id), collection, id, string(body),
	)
	if err != nil {
		return "", fmt.Errorf("append to %s: %w", collection, err)
	}
	return id, nil
}

func (s *PostgresStore) Upsert(ctx context.Context, path string, data map[string]any, merge bool) error {
	collection, id, err := split(path)
	if err != nil {
		return err
	}
	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode document: %w", err)
	}

	// jsonb || jsonb overlays top-level keys, matching merge().
	update := `data = EXCLUDED.data`
	if merge {
		update = `data = documents.data || EXCLUDED.data`
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO documents (path, collection, id, data)
		 VALUES ($1, $2, $3, $4::JSONB)
		 ON CONFLICT (path) DO UPDATE SET `+update+`, updated_at = now()`,
		Join(collection, id), collection, id, string(body),
	)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", path, err)
	}
	return nil
}

func (s *PostgresStore) Get(ctx context.Context, path string) (Document, error) {
	collection, id, err := split(path)
	if err != nil {
		return Document{}, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT id, path, data, created_at, updated_at
		 FROM documents WHERE path = $1`, Join(collection, id))
	d, err := scanDocument(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return Document{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if err != nil {
		return Document{}, fmt.Errorf("get %s: %w", path, err)
	}
	return d, nil
}

func (s *PostgresStore) List(ctx context.Context, collection string) ([]Document, error) {
	if err := validCollection(collection); err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, listQuery, strings.Trim(collection, "/"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func scanDocument(row pgx.Row) (Document, error) {
	var d Document
	var body []byte
	if err := row.Scan(&d.ID, &d.Path, &body, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return Document{}, err
	}
	if err := json.Unmarshal(body, &d.Data); err != nil {
		return Document{}, fmt.Errorf("decode %s: %w", d.Path, err)
	}
	return d, nil
}
