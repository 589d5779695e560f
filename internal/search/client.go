package search

import (
	"context"
	"net/http"
	"time"

	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/util"
	"go.uber.org/zap"
)

// Client adapts a Provider to the chunk pipeline: it derives the query from a
// chunk, bounds the call, and never fails.
type Client struct {
	provider   Provider
	hc         *http.Client
	maxResults int
	queryChars int
	timeout    time.Duration
	logger     *zap.Logger

	isSafe func(string) bool
}

// NewClient creates a search client that sends provider traffic through hc.
func NewClient(provider Provider, hc *http.Client, cfg model.SearchConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		provider:   provider,
		hc:         hc,
		maxResults: cfg.MaxResults,
		queryChars: cfg.QueryChars,
		timeout:    cfg.Timeout,
		logger:     logger,
		isSafe:     util.IsSafeURL,
	}
}

// Search returns up to maxResults safe hits for the chunk. Any provider
// failure yields an empty result.
func (c *Client) Search(ctx context.Context, chunkText string) []model.SearchHit {
	query := extract.Truncate(chunkText, c.queryChars)
	if query == "" {
		return nil
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	name := c.provider.Name()
	hits, err := c.provider.Search(ctx, c.hc, query, c.maxResults)
	if err != nil {
		metrics.SearchRequests.WithLabelValues(name, "error").Inc()
		c.logger.Warn("search failed", zap.String("provider", name), zap.Error(err))
		return nil
	}
	metrics.SearchRequests.WithLabelValues(name, "success").Inc()

	safe := make([]model.SearchHit, 0, min(len(hits), c.maxResults))
	for _, hit := range hits {
		if len(safe) >= c.maxResults {
			break
		}
		if !c.isSafe(hit.URL) {
			c.logger.Info("dropping unsafe search result", zap.String("url", hit.URL))
			continue
		}
		safe = append(safe, hit)
	}
	return safe
}

// WithURLFilter replaces the filter applied to result URLs.
func (c *Client) WithURLFilter(fn func(string) bool) *Client {
	c.isSafe = fn
	return c
}
