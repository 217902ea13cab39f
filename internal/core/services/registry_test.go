package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/adapters/driven/storage/memory"
	"github.com/calder-labs/mirador/internal/core/domain"
)

func newRegistryHarness() (*TenantRegistry, *memory.TenantStore, *memory.VectorStore) {
	store := memory.NewTenantStore()
	vectors := memory.NewVectorStore()
	return NewTenantRegistry(store, vectors, zap.NewNop()), store, vectors
}

func TestProvision_CreatesTenantAndNamespace(t *testing.T) {
	registry, store, vectors := newRegistryHarness()
	ctx := context.Background()

	tenant, err := registry.Provision(ctx, "ana@example.com", "filesystem",
		map[string]string{"root": "/srv/docs"})

	require.NoError(t, err)
	assert.NotEmpty(t, tenant.ID)
	assert.Equal(t, domain.DeriveNamespace("ana@example.com"), tenant.Namespace)

	stored, err := store.GetByEmail(ctx, "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, tenant.ID, stored.ID)

	// Namespace is usable immediately after provisioning.
	assert.NoError(t, vectors.Upsert(ctx, tenant.Namespace, nil))
}

func TestProvision_DuplicateEmail(t *testing.T) {
	registry, _, _ := newRegistryHarness()
	ctx := context.Background()

	_, err := registry.Provision(ctx, "ana@example.com", "filesystem", nil)
	require.NoError(t, err)

	_, err = registry.Provision(ctx, "ana@example.com", "github", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestProvision_EmptyEmail(t *testing.T) {
	registry, _, _ := newRegistryHarness()

	_, err := registry.Provision(context.Background(), "", "filesystem", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestProvision_NamespaceFailureLeavesNoTenant(t *testing.T) {
	registry, store, vectors := newRegistryHarness()
	ctx := context.Background()

	vectors.EnsureErr = errors.New("connection refused")

	_, err := registry.Provision(ctx, "ana@example.com", "filesystem", nil)
	require.Error(t, err)

	// No tenant row survives the failed provisioning, so the email is
	// free for a retry.
	_, err = store.GetByEmail(ctx, "ana@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	tenant, err := registry.Provision(ctx, "ana@example.com", "filesystem", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, tenant.ID)
}
