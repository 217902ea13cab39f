package memory

import (
	"context"
	"sync"
	"time"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Ensure ManifestStore implements the interface.
var _ driven.ManifestStore = (*ManifestStore)(nil)

// ManifestStore is an in-memory implementation of driven.ManifestStore.
// Save replaces the whole manifest in one step, mirroring the atomic
// replace semantics of the durable store.
type ManifestStore struct {
	mu        sync.RWMutex
	manifests map[string]domain.Manifest
	stats     map[string]domain.TenantStats

	// SaveErr, when set, is returned by the next Save call. Used to
	// exercise crash-safety paths in tests.
	SaveErr error

	// LoadErr, when set, is returned by every Load call.
	LoadErr error
}

// NewManifestStore creates a new in-memory manifest store.
func NewManifestStore() *ManifestStore {
	return &ManifestStore{
		manifests: make(map[string]domain.Manifest),
		stats:     make(map[string]domain.TenantStats),
	}
}

// Load returns the tenant's manifest, empty when none was ever saved.
func (s *ManifestStore) Load(_ context.Context, tenantID string) (domain.Manifest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	m, ok := s.manifests[tenantID]
	if !ok {
		return domain.Manifest{}, nil
	}
	return m.Clone(), nil
}

// Save atomically replaces the tenant's manifest.
func (s *ManifestStore) Save(_ context.Context, tenantID string, manifest domain.Manifest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.SaveErr != nil {
		err := s.SaveErr
		s.SaveErr = nil
		return err
	}
	s.manifests[tenantID] = manifest.Clone()
	return nil
}

// Stats returns the tenant's lifetime sync statistics.
func (s *ManifestStore) Stats(_ context.Context, tenantID string) (domain.TenantStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stats[tenantID], nil
}

// RecordRun folds a completed run into the tenant's lifetime stats.
func (s *ManifestStore) RecordRun(_ context.Context, tenantID string, processed, chunksCreated int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.stats[tenantID]
	st.TotalSyncs++
	st.TotalDocumentsProcessed += int64(processed)
	st.TotalChunksCreated += int64(chunksCreated)
	st.LastSync = time.Now().UTC()
	s.stats[tenantID] = st
	return nil
}
