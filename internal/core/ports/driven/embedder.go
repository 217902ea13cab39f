package driven

import "context"

// Embedder generates vector embeddings from text.
//
// Document and query embeddings are separate operations because embedding
// models distinguish the two task types. The vector dimension is fixed per
// deployment and must match the vector store's configured dimension.
type Embedder interface {
	// EmbedDocuments generates embeddings for document chunks, batched
	// where the backend supports it. The result has one vector per
	// input, in order. Failures wrap domain.ErrEmbedding.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a search query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g., 768).
	Dimensions() int

	// ModelName returns the name of the embedding model in use.
	ModelName() string
}
