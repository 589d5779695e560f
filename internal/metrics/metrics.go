package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Scan metrics
	ScansTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagscan_scans_total",
			Help: "Total number of scan requests",
		},
		[]string{"mode", "status"}, // status: success, rejected, error
	)

	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plagscan_scan_duration_seconds",
			Help:    "End-to-end scan duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"mode"},
	)

	PlagiarismPercent = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plagscan_plagiarism_percent",
			Help:    "Distribution of reported plagiarism percentages",
			Buckets: []float64{0, 5, 10, 20, 30, 50, 75, 100},
		},
	)

	// Chunk metrics
	ChunksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagscan_chunks_total",
			Help: "Chunks processed by verdict",
		},
		[]string{"verdict"}, // cited, matched, clean
	)

	GateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "plagscan_gate_wait_seconds",
			Help:    "Time chunks wait for an outbound request slot",
			Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	// Outbound metrics
	SearchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagscan_search_requests_total",
			Help: "Search provider calls by outcome",
		},
		[]string{"provider", "status"}, // status: success, error, disabled
	)

	FetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagscan_fetch_total",
			Help: "Page fetches by outcome",
		},
		[]string{"outcome"},
	)

	EmbeddingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "plagscan_embedding_seconds",
			Help:    "Embedding batch latency in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"provider"},
	)

	// HTTP API metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plagscan_http_requests_total",
			Help: "HTTP API requests by route and status code",
		},
		[]string{"route", "code"},
	)
)

// Fetch outcomes.
const (
	FetchOK          = "ok"
	FetchCached      = "cached"
	FetchBlocked     = "blocked"
	FetchRobots      = "robots_disallowed"
	FetchStatus      = "bad_status"
	FetchTooLarge    = "too_large"
	FetchUnsupported = "unsupported_type"
	FetchError       = "error"
)

// ObserveScan records a finished scan.
func ObserveScan(mode, status string, started time.Time) {
	ScansTotal.WithLabelValues(mode, status).Inc()
	ScanDuration.WithLabelValues(mode).Observe(time.Since(started).Seconds())
}

// ObserveEmbedding records one embedding batch.
func ObserveEmbedding(provider string, started time.Time) {
	EmbeddingDuration.WithLabelValues(provider).Observe(time.Since(started).Seconds())
}
