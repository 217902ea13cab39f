package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

// tenantStore implements driven.TenantStore.
type tenantStore struct {
	store *Store
}

var _ driven.TenantStore = (*tenantStore)(nil)

// Save stores a new tenant. A duplicate email maps to
// domain.ErrAlreadyExists.
func (s *tenantStore) Save(ctx context.Context, tenant domain.Tenant) error {
	configJSON, err := json.Marshal(tenant.ListerConfig)
	if err != nil {
		return fmt.Errorf("marshalling lister config: %w", err)
	}

	now := time.Now().UTC()
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = now
	}
	tenant.UpdatedAt = now

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO tenants (id, email, namespace, lister_type, lister_config, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			namespace = excluded.namespace,
			lister_type = excluded.lister_type,
			lister_config = excluded.lister_config,
			updated_at = excluded.updated_at
	`, tenant.ID, tenant.Email, tenant.Namespace, tenant.ListerType,
		string(configJSON), tenant.CreatedAt, tenant.UpdatedAt)

	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed: tenants.email") {
			return fmt.Errorf("tenant %s: %w", tenant.Email, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("saving tenant: %w", err)
	}
	return nil
}

// Get retrieves a tenant by ID.
func (s *tenantStore) Get(ctx context.Context, id string) (*domain.Tenant, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, email, namespace, lister_type, lister_config, created_at, updated_at
		FROM tenants WHERE id = ?
	`, id)

	return scanTenant(row)
}

// GetByEmail retrieves a tenant by its email key.
func (s *tenantStore) GetByEmail(ctx context.Context, email string) (*domain.Tenant, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, email, namespace, lister_type, lister_config, created_at, updated_at
		FROM tenants WHERE email = ?
	`, email)

	return scanTenant(row)
}

// List returns all tenants.
func (s *tenantStore) List(ctx context.Context) ([]domain.Tenant, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, email, namespace, lister_type, lister_config, created_at, updated_at
		FROM tenants ORDER BY email
	`)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []domain.Tenant //nolint:prealloc // size unknown from query
	for rows.Next() {
		var tenant domain.Tenant
		var configJSON string
		var createdAt, updatedAt sql.NullTime
		if err := rows.Scan(&tenant.ID, &tenant.Email, &tenant.Namespace, &tenant.ListerType,
			&configJSON, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning tenant: %w", err)
		}

		if err := json.Unmarshal([]byte(configJSON), &tenant.ListerConfig); err != nil {
			return nil, fmt.Errorf("unmarshaling lister config: %w", err)
		}

		if createdAt.Valid {
			tenant.CreatedAt = createdAt.Time
		}
		if updatedAt.Valid {
			tenant.UpdatedAt = updatedAt.Time
		}
		tenants = append(tenants, tenant)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenants: %w", err)
	}

	return tenants, nil
}

// scanTenant scans a single tenant row.
func scanTenant(row *sql.Row) (*domain.Tenant, error) {
	var tenant domain.Tenant
	var configJSON string
	var createdAt, updatedAt sql.NullTime
	if err := row.Scan(&tenant.ID, &tenant.Email, &tenant.Namespace, &tenant.ListerType,
		&configJSON, &createdAt, &updatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning tenant: %w", err)
	}

	if err := json.Unmarshal([]byte(configJSON), &tenant.ListerConfig); err != nil {
		return nil, fmt.Errorf("unmarshaling lister config: %w", err)
	}

	if createdAt.Valid {
		tenant.CreatedAt = createdAt.Time
	}
	if updatedAt.Valid {
		tenant.UpdatedAt = updatedAt.Time
	}

	return &tenant, nil
}
