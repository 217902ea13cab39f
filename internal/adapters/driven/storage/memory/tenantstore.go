// Package memory provides in-memory implementations of the driven storage
// ports, used in tests and as a reference for store semantics.
package memory

import (
	"context"
	"sync"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// Ensure TenantStore implements the interface.
var _ driven.TenantStore = (*TenantStore)(nil)

// TenantStore is an in-memory implementation of driven.TenantStore.
type TenantStore struct {
	mu      sync.RWMutex
	byID    map[string]domain.Tenant
	byEmail map[string]string
}

// NewTenantStore creates a new in-memory tenant store.
func NewTenantStore() *TenantStore {
	return &TenantStore{
		byID:    make(map[string]domain.Tenant),
		byEmail: make(map[string]string),
	}
}

// Save stores a new tenant.
func (s *TenantStore) Save(_ context.Context, tenant domain.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[tenant.Email]; ok {
		return domain.ErrAlreadyExists
	}
	s.byID[tenant.ID] = tenant
	s.byEmail[tenant.Email] = tenant.ID
	return nil
}

// Get retrieves a tenant by id.
func (s *TenantStore) Get(_ context.Context, id string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tenant, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &tenant, nil
}

// GetByEmail retrieves a tenant by its email key.
func (s *TenantStore) GetByEmail(_ context.Context, email string) (*domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	tenant := s.byID[id]
	return &tenant, nil
}

// List returns all tenants.
func (s *TenantStore) List(_ context.Context) ([]domain.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Tenant, 0, len(s.byID))
	for _, t := range s.byID {
		out = append(out, t)
	}
	return out, nil
}
