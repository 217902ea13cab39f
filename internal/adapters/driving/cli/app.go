package cli

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/calder-labs/mirador/internal/adapters/driven/embedding/cached"
	"github.com/calder-labs/mirador/internal/adapters/driven/embedding/gemini"
	"github.com/calder-labs/mirador/internal/adapters/driven/storage/sqlite"
	"github.com/calder-labs/mirador/internal/adapters/driven/vector/pgvector"
	"github.com/calder-labs/mirador/internal/chunker"
	"github.com/calder-labs/mirador/internal/config"
	"github.com/calder-labs/mirador/internal/connectors"
	"github.com/calder-labs/mirador/internal/core/ports/driven"
	"github.com/calder-labs/mirador/internal/core/services"
	"github.com/calder-labs/mirador/internal/extract"
	"github.com/calder-labs/mirador/internal/logging"
)

// app holds the wired service graph for one command invocation.
type app struct {
	cfg    config.Config
	logger *zap.Logger

	store   *sqlite.Store
	vectors *pgvector.Store

	registry     *services.TenantRegistry
	orchestrator *services.SyncOrchestrator
	searcher     *services.Search
	listers      *connectors.Factory
}

// newApp wires everything a sync or search needs. It requires a
// PostgreSQL DSN and an embedding API key.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.NewStore(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening metadata store: %w", err)
	}

	if cfg.Vector.DSN == "" {
		store.Close()
		return nil, fmt.Errorf("vector.dsn is not configured")
	}
	vectors, err := pgvector.NewStore(ctx, cfg.Vector.DSN, cfg.Embedding.Dimensions)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("connecting to vector store: %w", err)
	}

	embedder, err := buildEmbedder(ctx, cfg.Embedding)
	if err != nil {
		vectors.Close()
		store.Close()
		return nil, err
	}

	ch := chunker.New(
		chunker.WithWindowSize(cfg.Chunker.WindowSize),
		chunker.WithOverlapFraction(cfg.Chunker.OverlapFraction),
	)
	listers := connectors.NewFactory()

	pipeline := services.NewPipeline(extract.NewRegistry(), ch, logger)
	committer := services.NewCommitter(embedder, vectors, logger)
	orchestrator := services.NewSyncOrchestrator(
		store.TenantStore(),
		store.ManifestStore(),
		listers,
		pipeline,
		committer,
		vectors,
		logger,
		services.WithWorkers(cfg.Sync.Workers),
		services.WithDiffOptions(services.DiffOptions{UseContentHash: cfg.Sync.UseContentHash}),
	)

	return &app{
		cfg:          cfg,
		logger:       logger,
		store:        store,
		vectors:      vectors,
		registry:     services.NewTenantRegistry(store.TenantStore(), vectors, logger),
		orchestrator: orchestrator,
		searcher:     services.NewSearch(store.TenantStore(), embedder, vectors, logger),
		listers:      listers,
	}, nil
}

func buildEmbedder(ctx context.Context, cfg config.EmbeddingConfig) (driven.Embedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("embedding.api_key is not configured (or set GEMINI_API_KEY)")
	}
	base, err := gemini.NewEmbedder(ctx, gemini.Config{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	if cfg.CacheSize < 0 {
		return base, nil
	}
	return cached.Wrap(base, cfg.CacheSize)
}

func (a *app) Close() {
	a.vectors.Close()
	a.store.Close()
	_ = a.logger.Sync()
}

func (a *app) syncInterval() time.Duration {
	return time.Duration(a.cfg.Sync.Interval)
}
