package domain

import "time"

// SyncState is the per-tenant execution state of the sync engine.
type SyncState string

const (
	// SyncStateIdle means no sync is executing for the tenant.
	SyncStateIdle SyncState = "idle"

	// SyncStateRunning means a sync is currently executing. A second
	// RunSync for the same tenant is rejected while in this state.
	SyncStateRunning SyncState = "running"
)

// SyncRunResult summarises one sync run for a tenant. It is surfaced via
// logs and the status API, never stored as durable state.
type SyncRunResult struct {
	// RunID uniquely identifies this run.
	RunID string

	// TenantID is the tenant the run belonged to.
	TenantID string

	// StartedAt and FinishedAt bound the run.
	StartedAt  time.Time
	FinishedAt time.Time

	// Added, Modified, Unchanged and Deleted are the change-set counts
	// computed at the start of the run.
	Added     int
	Modified  int
	Unchanged int
	Deleted   int

	// Processed counts documents whose commit fully succeeded.
	Processed int

	// PerDocumentErrors maps document id to the error that prevented it
	// from being indexed in this run. Failed documents keep their old
	// manifest entry and are retried next run.
	PerDocumentErrors map[string]string

	// ChunkDelta is the net change in stored chunk count.
	ChunkDelta int

	// Err carries the run-level failure, if the run aborted before
	// processing (listing unavailable, corrupt manifest).
	Err string
}

// SyncStatus is the externally visible state of a tenant's sync engine.
type SyncStatus struct {
	// TenantID identifies the tenant.
	TenantID string

	// State is Idle or Running.
	State SyncState

	// LastRun is the most recent completed run, nil when the tenant has
	// never synced in this process.
	LastRun *SyncRunResult
}

// SearchHit is one ranked result from a tenant-scoped similarity query.
type SearchHit struct {
	// ChunkID identifies the matching chunk.
	ChunkID string

	// DocumentID identifies the owning document.
	DocumentID string

	// Name is the owning document's name.
	Name string

	// Position is the chunk's ordinal within the document.
	Position int

	// Text is the chunk text.
	Text string

	// Similarity is the cosine similarity in [0, 1], higher is closer.
	Similarity float64
}
