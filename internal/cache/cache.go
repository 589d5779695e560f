package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
)

// Cache stores fetched page text and embeddings between scans.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Close() error
}

// Key namespaces and hashes parts into a fixed-length cache key.
func Key(namespace string, parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		_, _ = h.Write([]byte(p))
		_, _ = h.Write([]byte{0})
	}
	return "plagscan:v1:" + namespace + ":" + hex.EncodeToString(h.Sum(nil))
}

// New returns the configured cache, or nil when caching is disabled.
// A Redis URL selects Redis; otherwise the in-process cache is used.
func New(ctx context.Context, cfg model.CacheConfig, logger *zap.Logger) (Cache, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.RedisURL != "" {
		c, err := NewRedisCache(ctx, cfg.RedisURL, cfg.TTL)
		if err != nil {
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		logger.Info("using redis cache")
		return c, nil
	}
	logger.Info("using in-memory cache", zap.Duration("ttl", cfg.TTL))
	return NewMemoryCache(cfg.TTL, cfg.CleanupInterval), nil
}
