package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/plagscan/internal/cache"
	"github.com/ppiankov/plagscan/internal/embed"
	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/score"
	"github.com/ppiankov/plagscan/internal/search"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Pipeline orchestrates a complete scan: chunking, per-chunk processing
// and aggregation. One Pipeline serves every request; outbound resources
// are created per scan.
type Pipeline struct {
	config    *model.Config
	detector  *extract.CitationDetector
	scorer    *score.Scorer
	provider  search.Provider
	store     cache.Cache
	renderer  *Renderer
	logger    *zap.Logger
	embedName string
}

// NewPipeline creates a pipeline around a loaded embedder and search provider.
// store may be nil to disable page caching.
func NewPipeline(cfg *model.Config, embedder embed.Embedder, provider search.Provider, store cache.Cache, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{
		config:    cfg,
		detector:  extract.NewCitationDetector(cfg.Scan.MinCitationChars),
		scorer:    score.NewScorer(embedder, cfg.Scan),
		provider:  provider,
		store:     store,
		renderer:  NewRenderer(),
		logger:    logger,
		embedName: embedder.Name(),
	}
}

// Scan checks text against the web. Input problems return model.ErrNoText
// or model.ErrTextTooShort; any processing failure fails the whole scan.
func (p *Pipeline) Scan(ctx context.Context, text, mode string) (*model.ScanResult, error) {
	started := time.Now()
	scanMode := model.ParseScanMode(mode)
	modeLabel := string(scanMode)

	chunks, err := p.prepare(text, scanMode)
	if err != nil {
		metrics.ObserveScan(modeLabel, "rejected", started)
		return nil, err
	}

	scanID := uuid.NewString()
	log := p.logger.With(zap.String("scan_id", scanID), zap.String("mode", modeLabel))
	log.Info("scan started", zap.Int("chunks", len(chunks)))

	candidates, err := p.processAll(ctx, chunks, log)
	if err != nil {
		metrics.ObserveScan(modeLabel, "error", started)
		log.Error("scan failed", zap.Error(err))
		return nil, fmt.Errorf("process chunks: %w", err)
	}

	result := Aggregate(len(chunks), candidates, AggregateOptions{
		Threshold:  p.config.Scan.SimilarityThreshold,
		MaxMatches: p.config.Scan.MaxMatches,
	})
	result.ScanID = scanID
	result.ScanMode = scanMode

	metrics.ObserveScan(modeLabel, "success", started)
	metrics.PlagiarismPercent.Observe(result.PlagiarismPercent)
	log.Info("scan finished",
		zap.Float64("plagiarism_percent", result.PlagiarismPercent),
		zap.Int("matches", len(result.Matches)),
		zap.Duration("elapsed", time.Since(started)))
	return result, nil
}

func (p *Pipeline) prepare(text string, mode model.ScanMode) ([]model.Chunk, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, model.ErrNoText
	}
	chunks := extract.ChunkText(trimmed, p.config.Scan.ChunkSize)
	if len(chunks) == 0 {
		return nil, model.ErrTextTooShort
	}
	if mode == model.ScanModeQuick && p.config.Scan.QuickMaxChunks > 0 && len(chunks) > p.config.Scan.QuickMaxChunks {
		chunks = chunks[:p.config.Scan.QuickMaxChunks]
	}
	return chunks, nil
}

func (p *Pipeline) processAll(ctx context.Context, chunks []model.Chunk, log *zap.Logger) ([]model.MatchCandidate, error) {
	sess := newSession(p.config, p.provider, p.store, log)
	defer sess.Close()

	proc := NewProcessor(p.detector, sess.search, sess.fetcher, p.scorer, sess.gate, p.config.Scan, log)

	perChunk := make([][]model.MatchCandidate, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i, chunk := range chunks {
		g.Go(func() error {
			matches, err := proc.Process(gctx, chunk)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", chunk.Index, err)
			}
			perChunk[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []model.MatchCandidate
	for _, m := range perChunk {
		all = append(all, m...)
	}
	return all, nil
}

// Renderer returns the pipeline's report renderer.
func (p *Pipeline) Renderer() *Renderer {
	return p.renderer
}

// EmbedderName reports which embedding backend scores this pipeline.
func (p *Pipeline) EmbedderName() string {
	return p.embedName
}
