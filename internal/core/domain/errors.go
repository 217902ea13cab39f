package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates an entity already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync is already running for the
	// tenant. This is an expected signal, not a failure: callers treat
	// it as "already running" and move on.
	ErrSyncInProgress = errors.New("sync in progress")

	// ErrTransport indicates a listing or content fetch failed.
	// Retryable on the next run.
	ErrTransport = errors.New("transport failure")

	// ErrUnsupportedFormat indicates no extractor handles the
	// document's MIME type. Recorded per document, retried next run.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtraction indicates text extraction failed for a document.
	// Recorded per document, retried next run.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding call failed. A batch failure
	// fails the whole document's commit; the document is retried next
	// run.
	ErrEmbedding = errors.New("embedding failed")

	// ErrManifestCorrupt indicates a persisted manifest could not be
	// decoded. Fatal for that tenant's run: the run aborts without
	// touching the vector store rather than masking data loss as
	// "everything is new".
	ErrManifestCorrupt = errors.New("manifest corrupt")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Sync and semantic search are disabled without it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrUnsupportedType indicates an unknown lister type.
	ErrUnsupportedType = errors.New("unsupported type")
)
