// Package schedule drives periodic synchronisation. A single cron entry
// re-lists the tenant registry on every tick, so newly provisioned tenants
// are picked up without restarts. Tenants sync in parallel; per-tenant
// serialisation stays where it belongs, in the orchestrator's guard.
package schedule

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/ports/driving"
)

// DefaultInterval is the default time between sync ticks.
const DefaultInterval = 5 * time.Minute

// debounceDelay is how long a watcher-triggered sync waits for the burst of
// change events to settle.
const debounceDelay = 2 * time.Second

// Scheduler runs periodic sync ticks and optional change-driven syncs.
type Scheduler struct {
	orchestrator driving.SyncOrchestrator
	tenants      driven.TenantStore
	listers      driven.ListerFactory
	interval     time.Duration
	logger       *zap.Logger

	cron   *cron.Cron
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a scheduler. A zero interval disables periodic ticks: only
// the startup pass and watch-driven syncs run. A negative interval falls
// back to DefaultInterval. listers may be nil to disable watch-driven
// syncs.
func New(
	orchestrator driving.SyncOrchestrator,
	tenants driven.TenantStore,
	listers driven.ListerFactory,
	interval time.Duration,
	logger *zap.Logger,
) *Scheduler {
	if interval < 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		orchestrator: orchestrator,
		tenants:      tenants,
		listers:      listers,
		interval:     interval,
		logger:       logger,
		cron:         cron.New(),
	}
}

// Start begins syncing. Every tenant gets an immediate startup sync, then
// one sync per interval. Watch-capable sources additionally trigger
// debounced early syncs. A zero interval runs the startup pass and
// watchers only.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	if s.interval > 0 {
		if _, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.syncAll); err != nil {
			return fmt.Errorf("scheduling sync tick: %w", err)
		}
	}

	s.syncAll()
	s.startWatchers()
	s.cron.Start()

	s.logger.Info("scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the tick and waits for in-flight tenant syncs to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// TriggerTenant requests an immediate sync for one tenant.
func (s *Scheduler) TriggerTenant(tenantID string) {
	s.runTenant(tenantID)
}

// syncAll launches one sync per registered tenant. Tenants run in parallel;
// a tenant still Running from the previous tick is skipped by the
// orchestrator's guard.
func (s *Scheduler) syncAll() {
	tenants, err := s.tenants.List(s.ctx)
	if err != nil {
		s.logger.Error("listing tenants for sync tick", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		s.runTenant(tenant.ID)
	}
}

func (s *Scheduler) runTenant(tenantID string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		_, err := s.orchestrator.RunSync(s.ctx, tenantID)
		switch {
		case err == nil:
		case errors.Is(err, domain.ErrSyncInProgress):
			s.logger.Info("sync skipped: previous run still in progress",
				zap.String("tenant_id", tenantID))
		case errors.Is(err, context.Canceled):
		default:
			s.logger.Error("scheduled sync failed",
				zap.String("tenant_id", tenantID),
				zap.Error(err))
		}
	}()
}

// startWatchers wires change-driven syncs for every tenant whose lister
// supports watching. Watch failures degrade to interval-only syncing.
func (s *Scheduler) startWatchers() {
	if s.listers == nil {
		return
	}

	tenants, err := s.tenants.List(s.ctx)
	if err != nil {
		s.logger.Error("listing tenants for watchers", zap.Error(err))
		return
	}

	for _, tenant := range tenants {
		lister, err := s.listers.Create(s.ctx, tenant)
		if err != nil {
			s.logger.Warn("watcher lister unavailable",
				zap.String("tenant_id", tenant.ID), zap.Error(err))
			continue
		}

		watcher, ok := lister.(driven.Watcher)
		if !ok {
			lister.Close()
			continue
		}

		signals, err := watcher.Watch(s.ctx)
		if err != nil {
			s.logger.Warn("watch failed, falling back to interval syncs",
				zap.String("tenant_id", tenant.ID), zap.Error(err))
			lister.Close()
			continue
		}

		s.logger.Info("watching for changes", zap.String("tenant_id", tenant.ID))
		s.wg.Add(1)
		go s.watchLoop(tenant.ID, lister, signals)
	}
}

// watchLoop debounces change signals into tenant syncs.
func (s *Scheduler) watchLoop(tenantID string, lister driven.Lister, signals <-chan struct{}) {
	defer s.wg.Done()
	defer lister.Close()

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-s.ctx.Done():
			return
		case _, ok := <-signals:
			if !ok {
				return
			}
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				fire = timer.C
			} else {
				timer.Reset(debounceDelay)
			}
		case <-fire:
			timer = nil
			fire = nil
			s.logger.Debug("change detected, syncing early",
				zap.String("tenant_id", tenantID))
			s.runTenant(tenantID)
		}
	}
}
