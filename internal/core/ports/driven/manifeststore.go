package driven

import (
	"context"

	"github.com/calder-labs/mirador/internal/core/domain"
)

// ManifestStore persists the per-tenant manifest with atomic replace
// semantics: a crash during Save never leaves a corrupt or partially
// written manifest.
type ManifestStore interface {
	// Load returns the tenant's manifest. A tenant with no persisted
	// state gets an empty manifest (first sync is full). Undecodable
	// state returns domain.ErrManifestCorrupt rather than an empty
	// manifest, to avoid masking data loss as "everything is new".
	Load(ctx context.Context, tenantID string) (domain.Manifest, error)

	// Save atomically replaces the tenant's manifest.
	Save(ctx context.Context, tenantID string, manifest domain.Manifest) error

	// Stats returns the tenant's lifetime sync statistics.
	Stats(ctx context.Context, tenantID string) (domain.TenantStats, error)

	// RecordRun folds a completed run into the tenant's lifetime stats.
	RecordRun(ctx context.Context, tenantID string, processed, chunksCreated int) error
}

// TenantStore persists tenant registrations.
type TenantStore interface {
	// Save stores a new tenant. A duplicate email returns
	// domain.ErrAlreadyExists.
	Save(ctx context.Context, tenant domain.Tenant) error

	// Get retrieves a tenant by id. Missing tenants return
	// domain.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Tenant, error)

	// GetByEmail retrieves a tenant by its email key.
	GetByEmail(ctx context.Context, email string) (*domain.Tenant, error)

	// List returns all tenants.
	List(ctx context.Context) ([]domain.Tenant, error)
}
