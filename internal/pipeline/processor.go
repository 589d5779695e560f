package pipeline

import (
	"context"
	"time"

	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// CitationChecker decides whether a chunk carries an in-text citation.
type CitationChecker interface {
	Detect(chunk string) model.CitationVerdict
}

// Searcher returns candidate sources for a chunk. It never fails.
type Searcher interface {
	Search(ctx context.Context, chunkText string) []model.SearchHit
}

// PageFetcher returns the visible text of a page, or "" on any failure.
type PageFetcher interface {
	Fetch(ctx context.Context, rawURL string) string
}

// SimilarityScorer measures the best overlap between a chunk and a page.
type SimilarityScorer interface {
	Score(ctx context.Context, chunk, page string) (float64, string, error)
}

// Processor turns one chunk into its match candidates.
type Processor struct {
	citations CitationChecker
	searcher  Searcher
	fetcher   PageFetcher
	scorer    SimilarityScorer
	gate      *semaphore.Weighted
	threshold float64
	highRisk  float64
	logger    *zap.Logger
}

// NewProcessor wires a processor. gate bounds how many chunks talk to the
// network at once and is shared by every processor of a request.
func NewProcessor(citations CitationChecker, searcher Searcher, fetcher PageFetcher, scorer SimilarityScorer,
	gate *semaphore.Weighted, cfg model.ScanConfig, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		citations: citations,
		searcher:  searcher,
		fetcher:   fetcher,
		scorer:    scorer,
		gate:      gate,
		threshold: cfg.SimilarityThreshold,
		highRisk:  cfg.HighRiskThreshold,
		logger:    logger,
	}
}

type sourcePage struct {
	url  string
	text string
}

type scoredPage struct {
	similarity float64
	matched    string
	ok         bool
}

// Process returns a single citation-safe candidate for a cited chunk, or one
// candidate per source scoring at or above the threshold. Source-level
// failures are swallowed; only context cancellation is returned.
func (p *Processor) Process(ctx context.Context, chunk model.Chunk) ([]model.MatchCandidate, error) {
	log := p.logger.With(zap.Int("chunk", chunk.Index))

	verdict := p.citations.Detect(chunk.Text)
	if verdict.IsCited {
		log.Info("chunk is cited, skipping search", zap.String("style", verdict.Style))
		metrics.ChunksTotal.WithLabelValues("cited").Inc()
		return []model.MatchCandidate{citedCandidate(chunk, verdict)}, nil
	}

	pages, err := p.collect(ctx, chunk)
	if err != nil {
		return nil, err
	}

	scored := make([]scoredPage, len(pages))
	g, gctx := errgroup.WithContext(ctx)
	for i, page := range pages {
		g.Go(func() error {
			sim, matched, err := p.scorer.Score(gctx, chunk.Text, page.text)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				log.Warn("scoring failed", zap.String("source", page.url), zap.Error(err))
				return nil
			}
			scored[i] = scoredPage{similarity: sim, matched: matched, ok: true}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var matches []model.MatchCandidate
	for i, s := range scored {
		if !s.ok || s.similarity < p.threshold {
			continue
		}
		status, rec := model.StatusFor(s.similarity, p.threshold, p.highRisk)
		matches = append(matches, model.MatchCandidate{
			ChunkIndex:     chunk.Index,
			Chunk:          chunk.Text,
			Source:         pages[i].url,
			Similarity:     s.similarity,
			MatchedContent: s.matched,
			Status:         status,
			Recommendation: rec,
		})
	}

	verdictLabel := "clean"
	if len(matches) > 0 {
		verdictLabel = "matched"
	}
	metrics.ChunksTotal.WithLabelValues(verdictLabel).Inc()
	log.Debug("chunk processed", zap.Int("sources", len(pages)), zap.Int("matches", len(matches)))
	return matches, nil
}

// collect searches and fetches while holding one gate slot. The slot is
// released before scoring.
func (p *Processor) collect(ctx context.Context, chunk model.Chunk) ([]sourcePage, error) {
	waitStart := time.Now()
	if err := p.gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer p.gate.Release(1)
	metrics.GateWait.Observe(time.Since(waitStart).Seconds())

	hits := p.searcher.Search(ctx, chunk.Text)
	pages := make([]sourcePage, 0, len(hits))
	for _, hit := range hits {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text := p.fetcher.Fetch(ctx, hit.URL)
		if text == "" {
			text = hit.Snippet
		}
		if text == "" {
			continue
		}
		pages = append(pages, sourcePage{url: hit.URL, text: text})
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return pages, nil
}

func citedCandidate(chunk model.Chunk, verdict model.CitationVerdict) model.MatchCandidate {
	return model.MatchCandidate{
		ChunkIndex:     chunk.Index,
		Chunk:          chunk.Text,
		Source:         model.SourceCitationDetected,
		CitationSafe:   true,
		CitationStyle:  verdict.Style,
		Status:         model.StatusProperlyCited,
		Recommendation: model.RecommendationCited,
	}
}
