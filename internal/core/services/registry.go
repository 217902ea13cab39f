package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/ports/driving"
)

// Ensure TenantRegistry implements the interface.
var _ driving.TenantRegistry = (*TenantRegistry)(nil)

// TenantRegistry maps tenant identities to their isolated storage
// namespaces. The namespace is derived and validated exactly once, at
// provisioning; call sites resolve tenants through the registry instead of
// recomputing names from raw strings.
type TenantRegistry struct {
	store   driven.TenantStore
	vectors driven.VectorStore
	logger  *zap.Logger
}

// NewTenantRegistry creates the registry.
func NewTenantRegistry(store driven.TenantStore, vectors driven.VectorStore, logger *zap.Logger) *TenantRegistry {
	return &TenantRegistry{
		store:   store,
		vectors: vectors,
		logger:  logger,
	}
}

// Provision creates a tenant for the email, derives its namespace and
// initialises the vector namespace. Provisioning the same email twice
// returns domain.ErrAlreadyExists.
func (r *TenantRegistry) Provision(
	ctx context.Context,
	email, listerType string,
	listerConfig map[string]string,
) (*domain.Tenant, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	namespace := domain.DeriveNamespace(email)
	if !domain.ValidNamespace(namespace) {
		return nil, fmt.Errorf("%w: cannot derive namespace from %q", domain.ErrInvalidInput, email)
	}

	now := time.Now().UTC()
	tenant := domain.Tenant{
		ID:           uuid.New().String(),
		Email:        email,
		Namespace:    namespace,
		ListerType:   listerType,
		ListerConfig: listerConfig,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	// A tenant row is never persisted without a working namespace:
	// EnsureNamespace is idempotent, a Save failure after it leaves
	// nothing to clean up, and the email stays free for a retry.
	if err := r.vectors.EnsureNamespace(ctx, namespace); err != nil {
		return nil, fmt.Errorf("initialise namespace %s: %w", namespace, err)
	}

	if err := r.store.Save(ctx, tenant); err != nil {
		return nil, fmt.Errorf("save tenant: %w", err)
	}

	r.logger.Info("tenant provisioned",
		zap.String("tenant_id", tenant.ID),
		zap.String("email", email),
		zap.String("namespace", namespace),
		zap.String("lister", listerType),
	)
	return &tenant, nil
}

// Get resolves a tenant by id.
func (r *TenantRegistry) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	return r.store.Get(ctx, id)
}

// List returns all known tenants.
func (r *TenantRegistry) List(ctx context.Context) ([]domain.Tenant, error) {
	return r.store.List(ctx)
}
