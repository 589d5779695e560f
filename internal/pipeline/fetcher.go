package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/plagscan/internal/cache"
	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/util"
	"github.com/ppiankov/plagscan/internal/worker"
	"go.uber.org/zap"
)

// Fetcher downloads candidate source pages and reduces them to visible text.
// It never returns an error: every failure yields an empty page.
type Fetcher struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
	maxChars  int
	logger    *zap.Logger

	robots   *util.RobotsChecker
	limiter  *worker.Limiter
	store    cache.Cache
	cacheTTL time.Duration

	isSafe func(string) bool
}

// FetcherOption configures optional Fetcher collaborators.
type FetcherOption func(*Fetcher)

// WithRobots skips pages disallowed by robots.txt.
func WithRobots(r *util.RobotsChecker) FetcherOption {
	return func(f *Fetcher) { f.robots = r }
}

// WithLimiter throttles fetches per host.
func WithLimiter(l *worker.Limiter) FetcherOption {
	return func(f *Fetcher) { f.limiter = l }
}

// WithPageCache stores extracted page text keyed by URL.
func WithPageCache(store cache.Cache, ttl time.Duration) FetcherOption {
	return func(f *Fetcher) {
		f.store = store
		f.cacheTTL = ttl
	}
}

// NewFetcher creates a Fetcher that sends requests through client.
func NewFetcher(client *http.Client, cfg model.HTTPConfig, logger *zap.Logger, opts ...FetcherOption) *Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &Fetcher{
		client:    client,
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBodyBytes,
		maxChars:  cfg.MaxPageChars,
		logger:    logger,
		isSafe:    util.IsSafeURL,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the visible text of rawURL, truncated to the configured
// character budget, or "" when the page is unsafe, unreachable, too large
// or of an unsupported type.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) string {
	if !f.isSafe(rawURL) {
		metrics.FetchTotal.WithLabelValues(metrics.FetchBlocked).Inc()
		f.logger.Warn("blocked unsafe url", zap.String("url", rawURL))
		return ""
	}

	key := cache.Key("page", rawURL)
	if f.store != nil {
		if data, ok := f.store.Get(ctx, key); ok {
			metrics.FetchTotal.WithLabelValues(metrics.FetchCached).Inc()
			return string(data)
		}
	}

	if f.robots != nil && !f.robots.Allowed(ctx, rawURL) {
		metrics.FetchTotal.WithLabelValues(metrics.FetchRobots).Inc()
		f.logger.Info("robots.txt disallows url", zap.String("url", rawURL))
		return ""
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx, rawURL); err != nil {
			metrics.FetchTotal.WithLabelValues(metrics.FetchError).Inc()
			return ""
		}
	}

	text, outcome, err := f.fetch(ctx, rawURL)
	if err != nil {
		metrics.FetchTotal.WithLabelValues(outcome).Inc()
		if ctx.Err() != nil {
			f.logger.Info("fetch cancelled", zap.String("url", rawURL))
		} else {
			f.logger.Warn("fetch failed", zap.String("url", rawURL), zap.Error(err))
		}
		return ""
	}
	metrics.FetchTotal.WithLabelValues(outcome).Inc()

	text = extract.Truncate(text, f.maxChars)
	if f.store != nil && text != "" {
		if err := f.store.Set(ctx, key, []byte(text), f.cacheTTL); err != nil {
			f.logger.Debug("page cache write failed", zap.Error(err))
		}
	}
	return text
}

func (f *Fetcher) fetch(ctx context.Context, rawURL string) (string, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", metrics.FetchError, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/pdf,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", metrics.FetchError, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", metrics.FetchStatus, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return "", metrics.FetchTooLarge, fmt.Errorf("content length %d exceeds %d", resp.ContentLength, f.maxBytes)
	}

	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	isPDF := strings.Contains(contentType, "application/pdf") || strings.HasSuffix(strings.ToLower(rawURL), ".pdf")
	isText := strings.Contains(contentType, "text/html") || strings.Contains(contentType, "text/plain")
	if !isPDF && !isText {
		return "", metrics.FetchUnsupported, nil
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		outcome := metrics.FetchError
		if errors.Is(err, errBodyTooLarge) {
			outcome = metrics.FetchTooLarge
		}
		return "", outcome, err
	}

	if isPDF {
		text, err := extract.PDFText(body, f.logger)
		if err != nil {
			return "", metrics.FetchError, fmt.Errorf("extract pdf: %w", err)
		}
		return text, metrics.FetchOK, nil
	}

	text, err := extract.VisibleText(strings.NewReader(strings.ToValidUTF8(string(body), "")))
	if err != nil {
		return "", metrics.FetchError, fmt.Errorf("extract html: %w", err)
	}
	return text, metrics.FetchOK, nil
}

var errBodyTooLarge = errors.New("body exceeds size limit")

// readBody reads at most maxBytes; a longer body is rejected rather than cut.
func (f *Fetcher) readBody(r io.Reader) ([]byte, error) {
	if f.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, errBodyTooLarge
	}
	return body, nil
}
