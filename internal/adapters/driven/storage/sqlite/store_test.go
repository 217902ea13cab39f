package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calder-labs/mirador/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestTenantStore_SaveAndGet(t *testing.T) {
	store := newTestStore(t)
	tenants := store.TenantStore()
	ctx := context.Background()

	tenant := domain.Tenant{
		ID:         "t1",
		Email:      "alice@example.com",
		Namespace:  "alice_at_example_com",
		ListerType: "filesystem",
		ListerConfig: map[string]string{
			"root": "/srv/docs",
		},
	}
	require.NoError(t, tenants.Save(ctx, tenant))

	got, err := tenants.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, tenant.Email, got.Email)
	assert.Equal(t, tenant.Namespace, got.Namespace)
	assert.Equal(t, tenant.ListerConfig, got.ListerConfig)
	assert.False(t, got.CreatedAt.IsZero())

	byEmail, err := tenants.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, "t1", byEmail.ID)
}

func TestTenantStore_DuplicateEmail(t *testing.T) {
	store := newTestStore(t)
	tenants := store.TenantStore()
	ctx := context.Background()

	require.NoError(t, tenants.Save(ctx, domain.Tenant{
		ID: "t1", Email: "alice@example.com", Namespace: "alice_at_example_com", ListerType: "filesystem",
	}))

	err := tenants.Save(ctx, domain.Tenant{
		ID: "t2", Email: "alice@example.com", Namespace: "alice_at_example_com", ListerType: "filesystem",
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestTenantStore_GetMissing(t *testing.T) {
	store := newTestStore(t)

	_, err := store.TenantStore().Get(context.Background(), "nope")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = store.TenantStore().GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestTenantStore_List(t *testing.T) {
	store := newTestStore(t)
	tenants := store.TenantStore()
	ctx := context.Background()

	require.NoError(t, tenants.Save(ctx, domain.Tenant{
		ID: "t1", Email: "bob@example.com", Namespace: "bob_at_example_com", ListerType: "github",
	}))
	require.NoError(t, tenants.Save(ctx, domain.Tenant{
		ID: "t2", Email: "alice@example.com", Namespace: "alice_at_example_com", ListerType: "filesystem",
	}))

	list, err := tenants.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alice@example.com", list[0].Email)
	assert.Equal(t, "bob@example.com", list[1].Email)
}

func TestManifestStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t)

	manifest, err := store.ManifestStore().Load(context.Background(), "t1")
	require.NoError(t, err)
	assert.Empty(t, manifest)
}

func TestManifestStore_SaveAndLoad(t *testing.T) {
	store := newTestStore(t)
	manifests := store.ManifestStore()
	ctx := context.Background()

	manifest := domain.Manifest{
		"d1": {
			DocumentID:   "d1",
			Name:         "notes.txt",
			MIMEType:     "text/plain",
			ModifiedTime: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			ContentHash:  "abc123",
			ChunkIDs:     []string{"c1", "c2"},
			SyncedAt:     time.Date(2026, 3, 1, 12, 5, 0, 0, time.UTC),
		},
		"d2": {
			DocumentID:   "d2",
			Name:         "empty.txt",
			MIMEType:     "text/plain",
			ModifiedTime: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC),
			SyncedAt:     time.Date(2026, 3, 2, 9, 1, 0, 0, time.UTC),
		},
	}
	require.NoError(t, manifests.Save(ctx, "t1", manifest))

	got, err := manifests.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, manifest["d1"].ChunkIDs, got["d1"].ChunkIDs)
	assert.True(t, manifest["d1"].ModifiedTime.Equal(got["d1"].ModifiedTime))
	assert.Equal(t, "abc123", got["d1"].ContentHash)
	assert.Empty(t, got["d2"].ChunkIDs)
}

func TestManifestStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	manifests := store.ManifestStore()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, manifests.Save(ctx, "t1", domain.Manifest{
		"d1": {DocumentID: "d1", ModifiedTime: now, ChunkIDs: []string{"c1"}, SyncedAt: now},
		"d2": {DocumentID: "d2", ModifiedTime: now, ChunkIDs: []string{"c2"}, SyncedAt: now},
	}))

	// d2 deleted, d1 re-chunked.
	require.NoError(t, manifests.Save(ctx, "t1", domain.Manifest{
		"d1": {DocumentID: "d1", ModifiedTime: now, ChunkIDs: []string{"c3"}, SyncedAt: now},
	}))

	got, err := manifests.Load(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, []string{"c3"}, got["d1"].ChunkIDs)
}

func TestManifestStore_TenantIsolation(t *testing.T) {
	store := newTestStore(t)
	manifests := store.ManifestStore()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, manifests.Save(ctx, "t1", domain.Manifest{
		"d1": {DocumentID: "d1", ModifiedTime: now, ChunkIDs: []string{"c1"}, SyncedAt: now},
	}))
	require.NoError(t, manifests.Save(ctx, "t2", domain.Manifest{
		"d1": {DocumentID: "d1", ModifiedTime: now, ChunkIDs: []string{"c9"}, SyncedAt: now},
	}))

	// Wiping t1 never touches t2.
	require.NoError(t, manifests.Save(ctx, "t1", domain.Manifest{}))

	got1, err := manifests.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Empty(t, got1)

	got2, err := manifests.Load(ctx, "t2")
	require.NoError(t, err)
	require.Len(t, got2, 1)
	assert.Equal(t, []string{"c9"}, got2["d1"].ChunkIDs)
}

func TestManifestStore_CorruptChunkIDs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO manifest_entries
			(tenant_id, document_id, modified_time, chunk_ids, synced_at)
		VALUES ('t1', 'd1', CURRENT_TIMESTAMP, 'not json', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	_, err = store.ManifestStore().Load(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrManifestCorrupt)
}

func TestManifestStore_CorruptTimestamp(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
		INSERT INTO manifest_entries
			(tenant_id, document_id, modified_time, chunk_ids, synced_at)
		VALUES ('t1', 'd1', 'last tuesday', '[]', CURRENT_TIMESTAMP)
	`)
	require.NoError(t, err)

	_, err = store.ManifestStore().Load(ctx, "t1")
	assert.ErrorIs(t, err, domain.ErrManifestCorrupt)
}

func TestManifestStore_Stats(t *testing.T) {
	store := newTestStore(t)
	manifests := store.ManifestStore()
	ctx := context.Background()

	stats, err := manifests.Stats(ctx, "t1")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalSyncs)
	assert.True(t, stats.LastSync.IsZero())

	require.NoError(t, manifests.RecordRun(ctx, "t1", 3, 12))
	require.NoError(t, manifests.RecordRun(ctx, "t1", 1, 4))

	stats, err = manifests.Stats(ctx, "t1")
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalSyncs)
	assert.EqualValues(t, 4, stats.TotalDocumentsProcessed)
	assert.EqualValues(t, 16, stats.TotalChunksCreated)
	assert.False(t, stats.LastSync.IsZero())
}

func TestStore_ReopenKeepsData(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.TenantStore().Save(ctx, domain.Tenant{
		ID: "t1", Email: "alice@example.com", Namespace: "alice_at_example_com", ListerType: "filesystem",
	}))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.TenantStore().Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)
}
