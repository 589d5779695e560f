package search

import (
	"fmt"
	"strings"

	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
)

// NewProvider creates the configured search provider. A missing credential
// is not an error: it yields a DisabledProvider.
func NewProvider(cfg model.SearchConfig, logger *zap.Logger) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "serpapi":
		if cfg.APIKey == "" {
			return NewDisabledProvider("SERPAPI_KEY not set", logger), nil
		}
		return NewSerpAPIProvider(cfg.APIKey, cfg.BaseURL), nil

	case "google":
		if cfg.APIKey == "" || cfg.EngineID == "" {
			return NewDisabledProvider("GOOGLE_API_KEY or GOOGLE_CSE_ID not set", logger), nil
		}
		return NewGoogleProvider(cfg.APIKey, cfg.EngineID, cfg.BaseURL), nil

	case "", "none":
		return NewDisabledProvider("no search provider configured", logger), nil

	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: serpapi, google, none)", cfg.Provider)
	}
}
