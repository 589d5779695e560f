package search

import (
	"context"
	"net/http"
	"sync"

	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
)

// DisabledProvider stands in when no search credential is configured.
// It returns no hits and warns once per process.
type DisabledProvider struct {
	reason string
	logger *zap.Logger
	once   sync.Once
}

// NewDisabledProvider returns a provider that never searches.
func NewDisabledProvider(reason string, logger *zap.Logger) *DisabledProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DisabledProvider{reason: reason, logger: logger}
}

// Name returns the provider name
func (p *DisabledProvider) Name() string {
	return "disabled"
}

// Search always returns nothing.
func (p *DisabledProvider) Search(_ context.Context, _ *http.Client, _ string, _ int) ([]model.SearchHit, error) {
	p.once.Do(func() {
		p.logger.Warn("web search disabled, chunks will have no candidate sources", zap.String("reason", p.reason))
	})
	return nil, nil
}
