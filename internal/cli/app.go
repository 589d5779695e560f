package cli

import (
	"context"
	"fmt"

	"github.com/ppiankov/plagscan/internal/cache"
	"github.com/ppiankov/plagscan/internal/embed"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/pipeline"
	"github.com/ppiankov/plagscan/internal/search"
	"go.uber.org/zap"
)

// app holds the long-lived collaborators shared by every scan in a process.
// The embedding model is loaded once here, never per request.
type app struct {
	cfg      *model.Config
	logger   *zap.Logger
	store    cache.Cache
	embedder embed.Embedder
	pipeline *pipeline.Pipeline
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}

	store, err := cache.New(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}

	embedder, err := embed.New(cfg.Embedding, cfg.HTTP, store, cfg.Cache.TTL)
	if err != nil {
		closeStore(store, logger)
		return nil, fmt.Errorf("create embedder: %w", err)
	}

	provider, err := search.NewProvider(cfg.Search, logger)
	if err != nil {
		_ = embedder.Close()
		closeStore(store, logger)
		return nil, fmt.Errorf("create search provider: %w", err)
	}

	logger.Debug("components ready",
		zap.String("search", provider.Name()),
		zap.String("embedder", embedder.Name()),
		zap.String("model", embedder.ModelID()))

	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		embedder: embedder,
		pipeline: pipeline.NewPipeline(cfg, embedder, provider, store, logger),
	}, nil
}

func (a *app) Close() {
	if err := a.embedder.Close(); err != nil {
		a.logger.Warn("close embedder", zap.Error(err))
	}
	closeStore(a.store, a.logger)
	_ = a.logger.Sync()
}

func closeStore(store cache.Cache, logger *zap.Logger) {
	if store == nil {
		return
	}
	if err := store.Close(); err != nil {
		logger.Warn("close cache", zap.Error(err))
	}
}
