// Package httpapi exposes tenant provisioning, sync control and search over
// HTTP. It is a thin driving adapter: every handler validates input, calls
// one core service and maps domain errors to status codes.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/ports/driving"
)

// DefaultSearchK is the result count when a search request omits k.
const DefaultSearchK = 10

// Server serves the control API.
type Server struct {
	registry     driving.TenantRegistry
	orchestrator driving.SyncOrchestrator
	searcher     driving.Searcher
	manifests    driven.ManifestStore
	logger       *zap.Logger

	engine *gin.Engine
	http   *http.Server
}

// NewServer builds the router and handlers.
func NewServer(
	registry driving.TenantRegistry,
	orchestrator driving.SyncOrchestrator,
	searcher driving.Searcher,
	manifests driven.ManifestStore,
	logger *zap.Logger,
) *Server {
	s := &Server{
		registry:     registry,
		orchestrator: orchestrator,
		searcher:     searcher,
		manifests:    manifests,
		logger:       logger,
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(logger))

	api := engine.Group("/api")
	api.POST("/tenants", s.createTenant)
	api.GET("/tenants", s.listTenants)
	api.GET("/tenants/:id", s.getTenant)
	api.POST("/tenants/:id/sync", s.triggerSync)
	api.GET("/tenants/:id/sync/status", s.syncStatus)
	api.POST("/tenants/:id/search", s.search)

	s.engine = engine
	return s
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then drains with a timeout.
func (s *Server) Run(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.ListenAndServe()
	}()
	s.logger.Info("http api listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

type createTenantRequest struct {
	Email        string            `json:"email" binding:"required"`
	ListerType   string            `json:"lister_type" binding:"required"`
	ListerConfig map[string]string `json:"lister_config"`
}

func (s *Server) createTenant(c *gin.Context) {
	var req createTenantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}

	tenant, err := s.registry.Provision(c.Request.Context(), req.Email, req.ListerType, req.ListerConfig)
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tenantView(*tenant))
}

func (s *Server) listTenants(c *gin.Context) {
	tenants, err := s.registry.List(c.Request.Context())
	if err != nil {
		s.handleError(c, err)
		return
	}

	views := make([]gin.H, 0, len(tenants))
	for _, t := range tenants {
		views = append(views, tenantView(t))
	}
	c.JSON(http.StatusOK, gin.H{"tenants": views})
}

func (s *Server) getTenant(c *gin.Context) {
	tenant, err := s.registry.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, tenantView(*tenant))
}

func (s *Server) triggerSync(c *gin.Context) {
	result, err := s.orchestrator.RunSync(c.Request.Context(), c.Param("id"))
	if err != nil && result == nil {
		s.handleError(c, err)
		return
	}
	if err != nil {
		// Run-level failure with a result attached: surface both.
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":  err.Error(),
			"result": runView(result),
		})
		return
	}
	c.JSON(http.StatusOK, runView(result))
}

func (s *Server) syncStatus(c *gin.Context) {
	tenantID := c.Param("id")
	if _, err := s.registry.Get(c.Request.Context(), tenantID); err != nil {
		s.handleError(c, err)
		return
	}

	status := s.orchestrator.Status(tenantID)
	view := gin.H{
		"tenant_id": tenantID,
		"state":     string(status.State),
	}
	if status.LastRun != nil {
		view["last_run"] = runView(status.LastRun)
	}
	if stats, err := s.manifests.Stats(c.Request.Context(), tenantID); err == nil {
		view["stats"] = gin.H{
			"total_syncs":               stats.TotalSyncs,
			"total_documents_processed": stats.TotalDocumentsProcessed,
			"total_chunks_created":      stats.TotalChunksCreated,
			"last_sync":                 stats.LastSync,
		}
	}
	c.JSON(http.StatusOK, view)
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
	K     int    `json:"k"`
}

func (s *Server) search(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if req.K <= 0 {
		req.K = DefaultSearchK
	}

	hits, err := s.searcher.Search(c.Request.Context(), c.Param("id"), req.Query, req.K)
	if err != nil {
		s.handleError(c, err)
		return
	}

	views := make([]gin.H, 0, len(hits))
	for _, hit := range hits {
		views = append(views, gin.H{
			"chunk_id":    hit.ChunkID,
			"document_id": hit.DocumentID,
			"name":        hit.Name,
			"position":    hit.Position,
			"text":        hit.Text,
			"similarity":  hit.Similarity,
		})
	}
	c.JSON(http.StatusOK, gin.H{"hits": views})
}

// handleError maps domain errors to HTTP status codes.
func (s *Server) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAlreadyExists):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrSyncInProgress):
		writeError(c, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrUnsupportedType):
		writeError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrEmbeddingUnavailable):
		writeError(c, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("request failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, "internal error")
	}
}

func writeError(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}

func tenantView(t domain.Tenant) gin.H {
	return gin.H{
		"id":          t.ID,
		"email":       t.Email,
		"namespace":   t.Namespace,
		"lister_type": t.ListerType,
		"created_at":  t.CreatedAt,
	}
}

func runView(r *domain.SyncRunResult) gin.H {
	view := gin.H{
		"run_id":      r.RunID,
		"tenant_id":   r.TenantID,
		"started_at":  r.StartedAt,
		"finished_at": r.FinishedAt,
		"added":       r.Added,
		"modified":    r.Modified,
		"unchanged":   r.Unchanged,
		"deleted":     r.Deleted,
		"processed":   r.Processed,
		"chunk_delta": r.ChunkDelta,
	}
	if len(r.PerDocumentErrors) > 0 {
		view["document_errors"] = r.PerDocumentErrors
	}
	if r.Err != "" {
		view["error"] = r.Err
	}
	return view
}
