package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"time"
)

// RemoteDocument is the metadata snapshot of one document as reported by
// the remote source. It is fetched fresh on every run and never persisted
// beyond its projection into the Manifest.
type RemoteDocument struct {
	// ID is the document identifier, stable and unique within the
	// tenant's remote source.
	ID string

	// Name is the human-readable document name.
	Name string

	// MIMEType is the document's MIME type as reported by the source.
	MIMEType string

	// ModifiedTime is the source-provided last modification time.
	// It is monotonic per document.
	ModifiedTime time.Time

	// Size is the document size in bytes, when the source reports one.
	Size int64

	// ContentHash is an optional source-provided content digest used to
	// confirm content-level changes when timestamps are unreliable.
	ContentHash string

	// PermissionsHash is an opaque token representing the viewer's
	// access grant.
	PermissionsHash string
}

// Chunk is a bounded span of extracted text from one document, the unit of
// embedding and retrieval. A chunk's lifetime is bounded by its document:
// re-indexing or deleting a document removes all of its prior chunks.
type Chunk struct {
	// ID is deterministic, derived from the document ID and the chunk's
	// ordinal, so re-processing the same document version yields
	// identical ids.
	ID string

	// DocumentID is a back-reference to the owning document.
	DocumentID string

	// Position is the ordinal position within the document.
	Position int

	// Text is the chunk's extracted text.
	Text string

	// Embedding is the vector representation. Populated by the
	// embedding stage, empty before it.
	Embedding []float32

	// Name is the owning document's name, carried for citations.
	Name string

	// MIMEType is the owning document's MIME type.
	MIMEType string
}

// ChunkID derives the deterministic chunk identifier for a document and
// ordinal position.
func ChunkID(documentID string, position int) string {
	sum := sha256.Sum256([]byte(documentID + ":" + strconv.Itoa(position)))
	return hex.EncodeToString(sum[:16])
}
