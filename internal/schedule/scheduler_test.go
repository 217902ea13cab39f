package schedule

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/adapters/driven/storage/memory"
	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
)

type recordingOrchestrator struct {
	mu   sync.Mutex
	runs map[string]int
}

func newRecordingOrchestrator() *recordingOrchestrator {
	return &recordingOrchestrator{runs: make(map[string]int)}
}

func (r *recordingOrchestrator) RunSync(_ context.Context, tenantID string) (*domain.SyncRunResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs[tenantID]++
	return &domain.SyncRunResult{TenantID: tenantID}, nil
}

func (r *recordingOrchestrator) Status(tenantID string) domain.SyncStatus {
	return domain.SyncStatus{TenantID: tenantID, State: domain.SyncStateIdle}
}

func (r *recordingOrchestrator) count(tenantID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runs[tenantID]
}

type watchableLister struct {
	signals chan struct{}
}

func (w *watchableLister) Type() string { return "watchable" }
func (w *watchableLister) List(context.Context) ([]domain.RemoteDocument, error) {
	return nil, nil
}
func (w *watchableLister) Fetch(context.Context, domain.RemoteDocument) ([]byte, error) {
	return nil, nil
}
func (w *watchableLister) Close() error { return nil }
func (w *watchableLister) Watch(context.Context) (<-chan struct{}, error) {
	return w.signals, nil
}

type watchableFactory struct {
	lister *watchableLister
}

func (f *watchableFactory) Create(context.Context, domain.Tenant) (driven.Lister, error) {
	return f.lister, nil
}

func seedTenants(t *testing.T, store *memory.TenantStore, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, store.Save(context.Background(), domain.Tenant{
			ID:        id,
			Email:     id + "@example.com",
			Namespace: domain.DeriveNamespace(id + "@example.com"),
		}))
	}
}

func TestStart_SyncsEveryTenantImmediately(t *testing.T) {
	tenants := memory.NewTenantStore()
	seedTenants(t, tenants, "t1", "t2")
	orch := newRecordingOrchestrator()

	s := New(orch, tenants, nil, time.Hour, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return orch.count("t1") == 1 && orch.count("t2") == 1
	}, time.Second, time.Millisecond)
}

func TestStart_ZeroIntervalRunsStartupPassOnly(t *testing.T) {
	tenants := memory.NewTenantStore()
	seedTenants(t, tenants, "t1")
	orch := newRecordingOrchestrator()

	s := New(orch, tenants, nil, 0, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool {
		return orch.count("t1") == 1
	}, time.Second, time.Millisecond)

	assert.Zero(t, s.interval)
	assert.Empty(t, s.cron.Entries(), "zero interval must not schedule a tick")
}

func TestNew_NegativeIntervalFallsBackToDefault(t *testing.T) {
	s := New(newRecordingOrchestrator(), memory.NewTenantStore(), nil, -time.Minute, zap.NewNop())

	assert.Equal(t, DefaultInterval, s.interval)
}

func TestTriggerTenant(t *testing.T) {
	tenants := memory.NewTenantStore()
	seedTenants(t, tenants, "t1")
	orch := newRecordingOrchestrator()

	s := New(orch, tenants, nil, time.Hour, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	s.TriggerTenant("t1")

	require.Eventually(t, func() bool {
		return orch.count("t1") >= 2 // startup sync + trigger
	}, time.Second, time.Millisecond)
}

func TestWatcher_DebouncesIntoOneSync(t *testing.T) {
	tenants := memory.NewTenantStore()
	seedTenants(t, tenants, "t1")
	orch := newRecordingOrchestrator()
	lister := &watchableLister{signals: make(chan struct{}, 8)}

	s := New(orch, tenants, &watchableFactory{lister: lister}, time.Hour, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	// Wait for the startup sync so counting is unambiguous.
	require.Eventually(t, func() bool {
		return orch.count("t1") == 1
	}, time.Second, time.Millisecond)

	// A burst of change events coalesces into a single sync.
	for i := 0; i < 5; i++ {
		lister.signals <- struct{}{}
	}

	require.Eventually(t, func() bool {
		return orch.count("t1") == 2
	}, 5*time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 2, orch.count("t1"), "burst must not fan out into multiple syncs")
}

func TestStop_WaitsForInFlightSyncs(t *testing.T) {
	tenants := memory.NewTenantStore()
	seedTenants(t, tenants, "t1")
	orch := newRecordingOrchestrator()

	s := New(orch, tenants, nil, time.Hour, zap.NewNop())
	require.NoError(t, s.Start(context.Background()))
	s.Stop()

	assert.Equal(t, 1, orch.count("t1"))
}
