package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Committer embeds a document's chunks and writes them to the tenant's
// vector namespace. The manifest entry it returns is only produced after
// every vector-store write succeeded, so a crash mid-commit leaves the
// document eligible for retry rather than silently "seen but not indexed".
type Committer struct {
	embedder driven.Embedder
	vectors  driven.VectorStore
	logger   *zap.Logger
}

// NewCommitter creates the embedding and upsert stage.
func NewCommitter(embedder driven.Embedder, vectors driven.VectorStore, logger *zap.Logger) *Committer {
	return &Committer{
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// Commit embeds the chunks, upserts them into the namespace and deletes
// any previous chunk ids not present in the new set (documents that shrank
// or were restructured). A batch embed failure fails the whole document.
func (c *Committer) Commit(
	ctx context.Context,
	namespace string,
	doc domain.RemoteDocument,
	chunks []domain.Chunk,
	previousChunkIDs []string,
) (domain.ManifestEntry, error) {
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, ch := range chunks {
			texts[i] = ch.Text
		}

		vectors, err := c.embedder.EmbedDocuments(ctx, texts)
		if err != nil {
			return domain.ManifestEntry{}, fmt.Errorf("embed %s: %w", doc.ID, err)
		}
		if len(vectors) != len(chunks) {
			return domain.ManifestEntry{}, fmt.Errorf("embed %s: %w: got %d vectors for %d chunks",
				doc.ID, domain.ErrEmbedding, len(vectors), len(chunks))
		}
		for i := range chunks {
			chunks[i].Embedding = vectors[i]
		}

		if err := c.vectors.Upsert(ctx, namespace, chunks); err != nil {
			return domain.ManifestEntry{}, fmt.Errorf("upsert %s: %w", doc.ID, err)
		}
	}

	newIDs := make(map[string]bool, len(chunks))
	chunkIDs := make([]string, 0, len(chunks))
	for _, ch := range chunks {
		newIDs[ch.ID] = true
		chunkIDs = append(chunkIDs, ch.ID)
	}

	var stale []string
	for _, id := range previousChunkIDs {
		if !newIDs[id] {
			stale = append(stale, id)
		}
	}
	if len(stale) > 0 {
		if err := c.vectors.DeleteByIDs(ctx, namespace, stale); err != nil {
			return domain.ManifestEntry{}, fmt.Errorf("delete stale chunks for %s: %w", doc.ID, err)
		}
	}

	c.logger.Debug("document committed",
		zap.String("document_id", doc.ID),
		zap.Int("chunks", len(chunks)),
		zap.Int("stale_deleted", len(stale)),
	)

	return domain.ManifestEntry{
		DocumentID:   doc.ID,
		Name:         doc.Name,
		MIMEType:     doc.MIMEType,
		ModifiedTime: doc.ModifiedTime,
		ContentHash:  doc.ContentHash,
		ChunkIDs:     chunkIDs,
		SyncedAt:     time.Now().UTC(),
	}, nil
}
