// Package chunker splits extracted text into bounded, overlapping windows.
// Overlap preserves semantic continuity across chunk boundaries for
// downstream retrieval.
package chunker

import (
	"strings"

	"github.com/calder-labs/mirador/internal/core/domain"
)

// DefaultWindowSize is the default number of characters per chunk.
const DefaultWindowSize = 1000

// DefaultOverlapFraction is the default fraction of the window shared with
// the previous chunk.
const DefaultOverlapFraction = 0.15

// Chunker splits document text into fixed-size overlapping chunks with
// deterministic ids, so re-processing the same document version yields
// identical chunk ids.
type Chunker struct {
	windowSize int
	overlap    int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithWindowSize sets the chunk window size in characters.
func WithWindowSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.windowSize = size
		}
	}
}

// WithOverlapFraction sets the overlap as a fraction of the window size.
func WithOverlapFraction(f float64) Option {
	return func(c *Chunker) {
		if f >= 0 && f < 1 {
			c.overlap = int(float64(c.windowSize) * f)
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		windowSize: DefaultWindowSize,
	}
	c.overlap = int(float64(c.windowSize) * DefaultOverlapFraction)

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must leave forward progress.
	if c.overlap >= c.windowSize {
		c.overlap = c.windowSize / 4
	}
	return c
}

// WindowSize returns the configured window size.
func (c *Chunker) WindowSize() int { return c.windowSize }

// Overlap returns the configured overlap in characters.
func (c *Chunker) Overlap() int { return c.overlap }

// Split chunks the extracted text of one document. Empty or
// whitespace-only text yields zero chunks; that is not an error, the
// document is still recorded as processed.
func (c *Chunker) Split(doc domain.RemoteDocument, text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	// Work on runes so windows never split a multi-byte sequence.
	runes := []rune(text)
	total := len(runes)

	step := c.windowSize - c.overlap
	estimated := total/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	position := 0
	for start := 0; start < total; start += step {
		end := start + c.windowSize
		if end > total {
			end = total
		}

		chunks = append(chunks, domain.Chunk{
			ID:         domain.ChunkID(doc.ID, position),
			DocumentID: doc.ID,
			Position:   position,
			Text:       string(runes[start:end]),
			Name:       doc.Name,
			MIMEType:   doc.MIMEType,
		})
		position++

		if end == total {
			break
		}
	}
	return chunks
}
