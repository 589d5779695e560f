package search

import (
	"context"
	"fmt"
	"net/http"

	"github.com/ppiankov/plagscan/internal/model"
	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// The Custom Search JSON API returns at most 10 results per call.
const googleMaxNum = 10

const googleAPIKeyHeader = "X-Goog-Api-Key"

// GoogleProvider queries a Programmable Search Engine.
type GoogleProvider struct {
	apiKey   string
	engineID string
	endpoint string
}

// NewGoogleProvider creates a provider for engine cx. endpoint may be empty.
func NewGoogleProvider(apiKey, engineID, endpoint string) *GoogleProvider {
	return &GoogleProvider{apiKey: apiKey, engineID: engineID, endpoint: endpoint}
}

// Name returns the provider name
func (p *GoogleProvider) Name() string {
	return "google"
}

// Search runs one Custom Search query.
func (p *GoogleProvider) Search(ctx context.Context, hc *http.Client, query string, n int) ([]model.SearchHit, error) {
	opts := []option.ClientOption{option.WithHTTPClient(hc)}
	if p.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.endpoint))
	}

	svc, err := customsearch.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create customsearch service: %w", err)
	}

	// WithHTTPClient bypasses option auth; the key goes in a header so it
	// stays out of request URLs.
	call := svc.Cse.List().
		Q(query).
		Cx(p.engineID).
		Num(int64(min(n, googleMaxNum))).
		Context(ctx)
	call.Header().Set(googleAPIKeyHeader, p.apiKey)

	resp, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("customsearch: %w", redactURLError(err))
	}

	hits := make([]model.SearchHit, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item == nil || item.Link == "" {
			continue
		}
		hits = append(hits, model.SearchHit{URL: item.Link, Snippet: item.Snippet})
	}
	return hits, nil
}
