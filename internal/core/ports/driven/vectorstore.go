package driven

import (
	"context"

	"github.com/calder-labs/mirador/internal/core/domain"
)

// VectorStore stores and searches chunk embeddings. Every operation is
// scoped to a tenant namespace; no two tenants ever share a namespace.
// Readers may query concurrently with a running sync and observe either
// the pre-run or post-commit state, never a torn write.
type VectorStore interface {
	// EnsureNamespace creates the namespace (table, indexes) if it does
	// not exist. Called once at tenant provisioning.
	EnsureNamespace(ctx context.Context, namespace string) error

	// Upsert writes chunks with their embeddings into the namespace.
	// Chunk ids are deterministic, so re-writing the same document
	// version replaces rather than duplicates.
	Upsert(ctx context.Context, namespace string, chunks []domain.Chunk) error

	// DeleteByIDs removes the given chunk ids from the namespace.
	DeleteByIDs(ctx context.Context, namespace string, chunkIDs []string) error

	// DeleteByDocument removes every chunk belonging to the document.
	DeleteByDocument(ctx context.Context, namespace string, documentID string) error

	// Query returns the k nearest chunks to the query vector, ranked by
	// cosine similarity.
	Query(ctx context.Context, namespace string, vector []float32, k int) ([]domain.SearchHit, error)

	// DropNamespace removes the namespace and all of its chunks.
	// Used only by explicit administrative tenant deletion.
	DropNamespace(ctx context.Context, namespace string) error

	// Close releases resources.
	Close() error
}
