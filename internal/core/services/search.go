package services

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/core/domain"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/ports/driving"
)

// DefaultSearchK is the default number of results per query.
const DefaultSearchK = 5

// Ensure Search implements the interface.
var _ driving.Searcher = (*Search)(nil)

// Search answers tenant-scoped similarity queries: embed the query, rank
// chunks in the tenant's namespace by cosine similarity.
type Search struct {
	tenants  driven.TenantStore
	embedder driven.Embedder
	vectors  driven.VectorStore
	logger   *zap.Logger
}

// NewSearch creates the search service.
func NewSearch(tenants driven.TenantStore, embedder driven.Embedder, vectors driven.VectorStore, logger *zap.Logger) *Search {
	return &Search{
		tenants:  tenants,
		embedder: embedder,
		vectors:  vectors,
		logger:   logger,
	}
}

// Search embeds the query and returns the k most similar chunks in the
// tenant's namespace. Results never include another tenant's chunks.
func (s *Search) Search(ctx context.Context, tenantID, query string, k int) ([]domain.SearchHit, error) {
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = DefaultSearchK
	}

	tenant, err := s.tenants.Get(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("get tenant: %w", err)
	}

	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := s.vectors.Query(ctx, tenant.Namespace, vector, k)
	if err != nil {
		return nil, fmt.Errorf("query namespace %s: %w", tenant.Namespace, err)
	}

	s.logger.Debug("search executed",
		zap.String("tenant", tenant.Email),
		zap.Int("k", k),
		zap.Int("hits", len(hits)),
	)
	return hits, nil
}
