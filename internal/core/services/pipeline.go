package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/chunker"
	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Pipeline turns one changed remote document into embedded-ready chunks:
// fetch raw content, extract text, split into overlapping windows.
type Pipeline struct {
	extractor driven.Extractor
	chunker   *chunker.Chunker
	logger    *zap.Logger
}

// NewPipeline creates the extraction and chunking pipeline.
func NewPipeline(extractor driven.Extractor, ch *chunker.Chunker, logger *zap.Logger) *Pipeline {
	return &Pipeline{
		extractor: extractor,
		chunker:   ch,
		logger:    logger,
	}
}

// Process fetches, extracts and chunks one document. Empty or
// whitespace-only extracted text yields zero chunks and no error; the
// caller still records the document as processed. Errors are per-document:
// the caller captures them without aborting the run.
func (p *Pipeline) Process(ctx context.Context, lister driven.Lister, doc domain.RemoteDocument) ([]domain.Chunk, error) {
	content, err := lister.Fetch(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", doc.ID, err)
	}

	text, err := p.extractor.Extract(content, doc.MIMEType)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", doc.ID, err)
	}

	chunks := p.chunker.Split(doc, text)
	p.logger.Debug("document chunked",
		zap.String("document_id", doc.ID),
		zap.String("name", doc.Name),
		zap.Int("bytes", len(content)),
		zap.Int("chunks", len(chunks)),
	)
	return chunks, nil
}
