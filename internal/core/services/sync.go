package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/ports/driving"
)

// DefaultWorkers is the default bound on concurrent document processing
// within one tenant's run.
const DefaultWorkers = 4

// Ensure SyncOrchestrator implements the interface.
var _ driving.SyncOrchestrator = (*SyncOrchestrator)(nil)

// SyncOrchestrator coordinates incremental synchronisation per tenant.
// Each tenant's runs are serialised through an Idle/Running guard while
// different tenants sync concurrently.
type SyncOrchestrator struct {
	tenants   driven.TenantStore
	manifests driven.ManifestStore
	listers   driven.ListerFactory
	pipeline  *Pipeline
	committer *Committer
	vectors   driven.VectorStore
	diffOpts  DiffOptions
	workers   int
	logger    *zap.Logger

	mu       sync.Mutex
	running  map[string]bool
	lastRuns map[string]*domain.SyncRunResult
}

// SyncOption configures the orchestrator.
type SyncOption func(*SyncOrchestrator)

// WithWorkers bounds the per-run document worker pool.
func WithWorkers(n int) SyncOption {
	return func(o *SyncOrchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithDiffOptions sets the change-detection options.
func WithDiffOptions(opts DiffOptions) SyncOption {
	return func(o *SyncOrchestrator) {
		o.diffOpts = opts
	}
}

// NewSyncOrchestrator creates a sync orchestrator.
func NewSyncOrchestrator(
	tenants driven.TenantStore,
	manifests driven.ManifestStore,
	listers driven.ListerFactory,
	pipeline *Pipeline,
	committer *Committer,
	vectors driven.VectorStore,
	logger *zap.Logger,
	opts ...SyncOption,
) *SyncOrchestrator {
	o := &SyncOrchestrator{
		tenants:   tenants,
		manifests: manifests,
		listers:   listers,
		pipeline:  pipeline,
		committer: committer,
		vectors:   vectors,
		workers:   DefaultWorkers,
		logger:    logger,
		running:   make(map[string]bool),
		lastRuns:  make(map[string]*domain.SyncRunResult),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// RunSync executes one reconciliation for the tenant. A call while the
// tenant is already Running returns domain.ErrSyncInProgress immediately.
// Run-level failures always return the tenant to Idle.
func (o *SyncOrchestrator) RunSync(ctx context.Context, tenantID string) (*domain.SyncRunResult, error) {
	tenant, err := o.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	if !o.acquire(tenantID) {
		return nil, domain.ErrSyncInProgress
	}
	defer o.release(tenantID)

	result := &domain.SyncRunResult{
		RunID:             uuid.New().String(),
		TenantID:          tenantID,
		StartedAt:         time.Now().UTC(),
		PerDocumentErrors: make(map[string]string),
	}
	logger := o.logger.With(
		zap.String("tenant", tenant.Email),
		zap.String("run_id", result.RunID),
	)
	logger.Info("sync started")

	err = o.run(ctx, tenant, result, logger)
	result.FinishedAt = time.Now().UTC()
	if err != nil {
		result.Err = err.Error()
		logger.Error("sync failed", zap.Error(err))
	} else {
		logger.Info("sync finished",
			zap.Int("added", result.Added),
			zap.Int("modified", result.Modified),
			zap.Int("unchanged", result.Unchanged),
			zap.Int("deleted", result.Deleted),
			zap.Int("processed", result.Processed),
			zap.Int("doc_errors", len(result.PerDocumentErrors)),
			zap.Int("chunk_delta", result.ChunkDelta),
			zap.Duration("duration", result.FinishedAt.Sub(result.StartedAt)),
		)
	}

	o.setLastRun(tenantID, result)
	return result, err
}

// run performs the reconciliation body. Document-level errors go into the
// result; only tenant-level failures are returned.
func (o *SyncOrchestrator) run(
	ctx context.Context,
	tenant *domain.Tenant,
	result *domain.SyncRunResult,
	logger *zap.Logger,
) error {
	previous, err := o.manifests.Load(ctx, tenant.ID)
	if err != nil {
		// A corrupt manifest aborts before any vector-store write.
		return fmt.Errorf("load manifest: %w", err)
	}

	lister, err := o.listers.Create(ctx, *tenant)
	if err != nil {
		return fmt.Errorf("create lister: %w", err)
	}
	defer lister.Close()

	listing, err := lister.List(ctx)
	if err != nil {
		return fmt.Errorf("list remote: %w", err)
	}

	cs := Diff(previous, listing, o.diffOpts)
	result.Added = len(cs.Added)
	result.Modified = len(cs.Modified)
	result.Unchanged = len(cs.Unchanged)
	result.Deleted = len(cs.Deleted)

	manifest := previous.Clone()

	// Process added and modified documents with a bounded worker pool.
	// Each worker handles one document end-to-end; entries are merged
	// into the manifest only after all workers finish, keeping the
	// manifest write single-writer.
	type docResult struct {
		doc   domain.RemoteDocument
		entry domain.ManifestEntry
		err   error
	}

	toProcess := cs.ToProcess()
	results := make([]docResult, len(toProcess))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers)
	for i, doc := range toProcess {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = docResult{doc: doc, err: err}
				return err
			}
			entry, err := o.processDocument(gctx, tenant, lister, previous, doc)
			results[i] = docResult{doc: doc, entry: entry, err: err}
			return nil
		})
	}
	// The only error workers propagate is context cancellation; handled
	// below so completed commits still reach the manifest.
	_ = g.Wait()

	for _, r := range results {
		if r.err != nil {
			result.PerDocumentErrors[r.doc.ID] = r.err.Error()
			logger.Warn("document failed, previous state kept",
				zap.String("document_id", r.doc.ID),
				zap.String("name", r.doc.Name),
				zap.Error(r.err),
			)
			continue
		}
		manifest[r.doc.ID] = r.entry
		result.Processed++
	}

	// Apply deletions: remove chunks first, drop the entry only after
	// the vector store confirmed, so orphans never outlive the run that
	// could still retry them.
	for _, id := range cs.Deleted {
		if err := o.vectors.DeleteByDocument(ctx, tenant.Namespace, id); err != nil {
			result.PerDocumentErrors[id] = err.Error()
			logger.Warn("delete failed, entry kept for retry",
				zap.String("document_id", id),
				zap.Error(err),
			)
			continue
		}
		delete(manifest, id)
	}

	result.ChunkDelta = manifest.ChunkCount() - previous.ChunkCount()

	// Persist whatever fully committed, even when the run was cancelled
	// mid-flight: failed documents kept their previous entries, so the
	// save is always consistent.
	saveCtx := context.WithoutCancel(ctx)
	if err := o.manifests.Save(saveCtx, tenant.ID, manifest); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}

	chunksCreated := 0
	for _, r := range results {
		if r.err == nil {
			chunksCreated += len(r.entry.ChunkIDs)
		}
	}
	if err := o.manifests.RecordRun(saveCtx, tenant.ID, result.Processed, chunksCreated); err != nil {
		logger.Warn("record run stats failed", zap.Error(err))
	}

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("run cancelled: %w", err)
	}
	return nil
}

// processDocument runs one document end-to-end: fetch, extract, chunk,
// embed, upsert, stale-chunk delete.
func (o *SyncOrchestrator) processDocument(
	ctx context.Context,
	tenant *domain.Tenant,
	lister driven.Lister,
	previous domain.Manifest,
	doc domain.RemoteDocument,
) (domain.ManifestEntry, error) {
	chunks, err := o.pipeline.Process(ctx, lister, doc)
	if err != nil {
		return domain.ManifestEntry{}, err
	}
	return o.committer.Commit(ctx, tenant.Namespace, doc, chunks, previous[doc.ID].ChunkIDs)
}

// Status returns the tenant's current state and last completed run.
func (o *SyncOrchestrator) Status(tenantID string) domain.SyncStatus {
	o.mu.Lock()
	defer o.mu.Unlock()

	status := domain.SyncStatus{
		TenantID: tenantID,
		State:    domain.SyncStateIdle,
	}
	if o.running[tenantID] {
		status.State = domain.SyncStateRunning
	}
	if last, ok := o.lastRuns[tenantID]; ok {
		c := *last
		status.LastRun = &c
	}
	return status
}

// acquire transitions the tenant Idle -> Running. Reports false when the
// tenant is already Running.
func (o *SyncOrchestrator) acquire(tenantID string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running[tenantID] {
		return false
	}
	o.running[tenantID] = true
	return true
}

func (o *SyncOrchestrator) release(tenantID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.running, tenantID)
}

func (o *SyncOrchestrator) setLastRun(tenantID string, result *domain.SyncRunResult) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastRuns[tenantID] = result
}
