package domain

import "time"

// ManifestEntry records what has been indexed for one remote document.
type ManifestEntry struct {
	// DocumentID is the remote document id this entry describes.
	DocumentID string

	// Name is the document name at the time it was indexed.
	Name string

	// MIMEType is the document MIME type at the time it was indexed.
	MIMEType string

	// ModifiedTime is the remote modification time this entry reflects.
	ModifiedTime time.Time

	// ContentHash is the optional content digest this entry reflects.
	ContentHash string

	// ChunkIDs are the chunk identifiers currently stored for this
	// document in the tenant's vector namespace.
	ChunkIDs []string

	// SyncedAt is when this entry was last committed.
	SyncedAt time.Time
}

// Manifest maps document id to its last-seen indexed state for one tenant.
// It is the sole source of truth for what has already been indexed.
type Manifest map[string]ManifestEntry

// Clone returns a deep copy of the manifest. Chunk id slices are copied so
// mutations of the clone never alias the original.
func (m Manifest) Clone() Manifest {
	out := make(Manifest, len(m))
	for id, e := range m {
		e.ChunkIDs = append([]string(nil), e.ChunkIDs...)
		out[id] = e
	}
	return out
}

// ChunkCount returns the total number of chunks recorded across all
// entries.
func (m Manifest) ChunkCount() int {
	n := 0
	for _, e := range m {
		n += len(e.ChunkIDs)
	}
	return n
}

// TenantStats aggregates lifetime sync statistics for a tenant.
type TenantStats struct {
	// TotalSyncs is the number of completed sync runs.
	TotalSyncs int64

	// TotalDocumentsProcessed counts documents processed across all runs.
	TotalDocumentsProcessed int64

	// TotalChunksCreated counts chunks written across all runs.
	TotalChunksCreated int64

	// LastSync is when the last run finished. Zero when never synced.
	LastSync time.Time
}
