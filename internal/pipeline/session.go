package pipeline

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ppiankov/plagscan/internal/cache"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/search"
	"github.com/ppiankov/plagscan/internal/util"
	"github.com/ppiankov/plagscan/internal/worker"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
)

// safeURL guards every outbound page request and redirect hop.
var safeURL = util.IsSafeURL

// session holds the outbound resources of one scan request. Nothing in it
// is shared with other requests.
type session struct {
	transport *http.Transport
	fetcher   *Fetcher
	search    *search.Client
	gate      *semaphore.Weighted
}

func newSession(cfg *model.Config, provider search.Provider, store cache.Cache, logger *zap.Logger) *session {
	transport := newTransport(cfg.HTTP)
	client := NewHTTPClient(transport, cfg.HTTP.Timeout, cfg.HTTP.MaxRedirects, safeURL)

	var opts []FetcherOption
	if cfg.RateLimiting.RequestsPerSecond > 0 {
		opts = append(opts, WithLimiter(worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)))
	}
	if cfg.HTTP.RespectRobots {
		opts = append(opts, WithRobots(util.NewRobotsChecker(client, cfg.HTTP.UserAgent, logger)))
	}
	if store != nil {
		opts = append(opts, WithPageCache(store, cfg.Cache.TTL))
	}

	gateSize := int64(cfg.Concurrency.MaxConcurrentRequests)
	if gateSize <= 0 {
		gateSize = 1
	}

	fetcher := NewFetcher(client, cfg.HTTP, logger, opts...)
	fetcher.isSafe = safeURL

	return &session{
		transport: transport,
		fetcher:   fetcher,
		search:    search.NewClient(provider, client, cfg.Search, logger).WithURLFilter(safeURL),
		gate:      semaphore.NewWeighted(gateSize),
	}
}

func (s *session) Close() {
	s.transport.CloseIdleConnections()
}

func newTransport(cfg model.HTTPConfig) *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		base = &http.Transport{}
	}
	t := base.Clone()
	t.Proxy = util.NewProxyFunc(cfg.HTTPProxy, cfg.HTTPSProxy, cfg.NoProxy)
	t.DialContext = (&net.Dialer{
		Timeout:   cfg.Timeout,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.MaxIdleConnsPerHost = 4
	return t
}

// NewHTTPClient returns a client that stops after maxRedirects hops and
// refuses any redirect target isSafe rejects.
func NewHTTPClient(rt http.RoundTripper, timeout time.Duration, maxRedirects int, isSafe func(string) bool) *http.Client {
	return &http.Client{
		Transport: rt,
		Timeout:   timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > maxRedirects {
				return fmt.Errorf("stopped after %d redirects", maxRedirects)
			}
			if !isSafe(req.URL.String()) {
				return fmt.Errorf("redirect to unsafe url %s", req.URL.Redacted())
			}
			return nil
		},
	}
}
