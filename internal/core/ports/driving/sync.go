package driving

import (
	"context"

	"github.com/calder-labs/mirador/internal/core/domain"
)

// SyncOrchestrator drives incremental synchronisation for tenants.
type SyncOrchestrator interface {
	// RunSync executes one full reconciliation for the tenant: list,
	// diff, process changed documents, apply deletions, persist the
	// manifest. At most one sync runs per tenant at a time; a call while
	// the tenant is already Running returns domain.ErrSyncInProgress
	// immediately and does no work. Document-level failures never fail
	// the run; they are aggregated in the result.
	RunSync(ctx context.Context, tenantID string) (*domain.SyncRunResult, error)

	// Status returns the tenant's current state and last run result.
	Status(tenantID string) domain.SyncStatus
}

// TenantRegistry provisions and resolves tenants.
type TenantRegistry interface {
	// Provision creates a tenant for the email, derives and validates
	// its storage namespace once, and initialises the tenant's vector
	// namespace. A tenant for the same email returns
	// domain.ErrAlreadyExists.
	Provision(ctx context.Context, email, listerType string, listerConfig map[string]string) (*domain.Tenant, error)

	// Get resolves a tenant by id.
	Get(ctx context.Context, id string) (*domain.Tenant, error)

	// List returns all known tenants.
	List(ctx context.Context) ([]domain.Tenant, error)
}

// Searcher answers tenant-scoped similarity queries over indexed chunks.
type Searcher interface {
	// Search embeds the query and returns the k most similar chunks in
	// the tenant's namespace.
	Search(ctx context.Context, tenantID, query string, k int) ([]domain.SearchHit, error)
}
