package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/ppiankov/plagscan/internal/model"
)

const defaultSerpAPIURL = "https://serpapi.com/search"

// SerpAPIProvider queries Google results through SerpAPI.
type SerpAPIProvider struct {
	apiKey  string
	baseURL string
}

type serpResponse struct {
	Error          string `json:"error,omitempty"`
	OrganicResults []struct {
		Link    string `json:"link"`
		Snippet string `json:"snippet"`
	} `json:"organic_results"`
}

// NewSerpAPIProvider creates a SerpAPI provider. baseURL may be empty.
func NewSerpAPIProvider(apiKey, baseURL string) *SerpAPIProvider {
	if baseURL == "" {
		baseURL = defaultSerpAPIURL
	}
	return &SerpAPIProvider{apiKey: apiKey, baseURL: baseURL}
}

// Name returns the provider name
func (p *SerpAPIProvider) Name() string {
	return "serpapi"
}

// Search runs one Google search.
func (p *SerpAPIProvider) Search(ctx context.Context, hc *http.Client, query string, n int) ([]model.SearchHit, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", p.apiKey)
	params.Set("num", strconv.Itoa(n))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", redactURLError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("serpapi status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed serpResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("serpapi: %s", parsed.Error)
	}

	hits := make([]model.SearchHit, 0, len(parsed.OrganicResults))
	for _, r := range parsed.OrganicResults {
		if r.Link == "" {
			continue
		}
		hits = append(hits, model.SearchHit{URL: r.Link, Snippet: r.Snippet})
	}
	return hits, nil
}
