// Package pgvector implements the vector store port on PostgreSQL with the
// pgvector extension. Each tenant gets its own chunks_<namespace> table, so
// a tenant's queries and deletions can never reach another tenant's rows.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	pgv "github.com/pgvector/pgvector-go"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Store implements driven.VectorStore on PostgreSQL + pgvector.
type Store struct {
	db         *sql.DB
	dimensions int
}

var _ driven.VectorStore = (*Store)(nil)

// NewStore connects to PostgreSQL, verifies the connection and ensures the
// pgvector extension is installed. dimensions fixes the vector column width
// for every namespace table.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: vector dimensions must be positive", domain.ErrInvalidInput)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ensuring vector extension: %w", err)
	}

	return &Store{db: db, dimensions: dimensions}, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// table returns the namespace's table name after validating the namespace.
// Namespaces are derived and validated at provisioning, but identifiers
// cannot be bound as query parameters, so re-check before interpolating.
func table(namespace string) (string, error) {
	if !domain.ValidNamespace(namespace) {
		return "", fmt.Errorf("%w: namespace %q", domain.ErrInvalidInput, namespace)
	}
	return "chunks_" + namespace, nil
}

// EnsureNamespace creates the tenant's chunk table and indexes if absent.
func (s *Store) EnsureNamespace(ctx context.Context, namespace string) error {
	tbl, err := table(namespace)
	if err != nil {
		return err
	}

	stmts := []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			position INTEGER NOT NULL,
			name TEXT NOT NULL DEFAULT '',
			mime_type TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			embedding vector(%d) NOT NULL
		)`, tbl, s.dimensions),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_document ON %s (document_id)`, tbl, tbl),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_%s_embedding ON %s
			USING hnsw (embedding vector_cosine_ops)`, tbl, tbl),
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring namespace %s: %w", namespace, err)
		}
	}
	return nil
}

// Upsert writes chunks into the namespace. Existing chunk ids are replaced,
// so re-committing the same document version is idempotent.
func (s *Store) Upsert(ctx context.Context, namespace string, chunks []domain.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}
	tbl, err := table(namespace)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	query := fmt.Sprintf(`
		INSERT INTO %s (id, document_id, position, name, mime_type, content, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			document_id = EXCLUDED.document_id,
			position = EXCLUDED.position,
			name = EXCLUDED.name,
			mime_type = EXCLUDED.mime_type,
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding
	`, tbl)

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if len(chunk.Embedding) != s.dimensions {
			return fmt.Errorf("%w: chunk %s has %d dimensions, namespace expects %d",
				domain.ErrInvalidInput, chunk.ID, len(chunk.Embedding), s.dimensions)
		}
		if _, err := stmt.ExecContext(ctx, chunk.ID, chunk.DocumentID, chunk.Position,
			chunk.Name, chunk.MIMEType, chunk.Text, pgv.NewVector(chunk.Embedding)); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", chunk.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// DeleteByIDs removes the given chunk ids from the namespace.
func (s *Store) DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	tbl, err := table(namespace)
	if err != nil {
		return err
	}

	query, args, err := sqlx.In(fmt.Sprintf("DELETE FROM %s WHERE id IN (?)", tbl), chunkIDs)
	if err != nil {
		return fmt.Errorf("expanding chunk ids: %w", err)
	}
	query = sqlx.Rebind(sqlx.DOLLAR, query)

	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("deleting chunks: %w", err)
	}
	return nil
}

// DeleteByDocument removes every chunk belonging to the document.
func (s *Store) DeleteByDocument(ctx context.Context, namespace string, documentID string) error {
	tbl, err := table(namespace)
	if err != nil {
		return err
	}

	query := fmt.Sprintf("DELETE FROM %s WHERE document_id = $1", tbl)
	if _, err := s.db.ExecContext(ctx, query, documentID); err != nil {
		return fmt.Errorf("deleting document chunks: %w", err)
	}
	return nil
}

// Query returns the k nearest chunks by cosine distance. The <=> operator
// returns distance in [0, 2]; similarity is reported as 1 - distance.
func (s *Store) Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.SearchHit, error) {
	tbl, err := table(namespace)
	if err != nil {
		return nil, err
	}
	if k <= 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT id, document_id, name, position, content, 1 - (embedding <=> $1) AS similarity
		FROM %s
		ORDER BY embedding <=> $1
		LIMIT $2
	`, tbl)

	rows, err := s.db.QueryContext(ctx, query, pgv.NewVector(vector), k)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var hits []domain.SearchHit //nolint:prealloc // size unknown from query
	for rows.Next() {
		var hit domain.SearchHit
		if err := rows.Scan(&hit.ChunkID, &hit.DocumentID, &hit.Name,
			&hit.Position, &hit.Text, &hit.Similarity); err != nil {
			return nil, fmt.Errorf("scanning hit: %w", err)
		}
		hits = append(hits, hit)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating hits: %w", err)
	}
	return hits, nil
}

// DropNamespace removes the namespace table and all of its chunks.
func (s *Store) DropNamespace(ctx context.Context, namespace string) error {
	tbl, err := table(namespace)
	if err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, "DROP TABLE IF EXISTS "+tbl); err != nil {
		return fmt.Errorf("dropping namespace %s: %w", namespace, err)
	}
	return nil
}
