package score

import (
	"context"
	"fmt"
	"math"

	"github.com/ppiankov/plagscan/internal/embed"
	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/model"
)

// Scorer measures semantic overlap between a chunk and a source page. It has
// no notion of citations or thresholds.
type Scorer struct {
	embedder      embed.Embedder
	chunkSize     int
	minPageChars  int
	maxPageChunks int
	minChunkChars int
}

// NewScorer creates a scorer sharing the process-wide embedder.
func NewScorer(embedder embed.Embedder, cfg model.ScanConfig) *Scorer {
	return &Scorer{
		embedder:      embedder,
		chunkSize:     cfg.ChunkSize,
		minPageChars:  cfg.MinPageChars,
		maxPageChunks: cfg.MaxPageChunks,
		minChunkChars: cfg.MinPageChunkChars,
	}
}

// Score returns the best similarity percentage (0-100, two decimals) between
// chunk and any sub-chunk of page, and that sub-chunk. Short or empty pages
// score zero without touching the model. Ties keep the earliest sub-chunk.
func (s *Scorer) Score(ctx context.Context, chunk, page string) (float64, string, error) {
	if page == "" || extract.RuneLen(page) < s.minPageChars {
		return 0, "", nil
	}

	subs := extract.SplitRunes(page, s.chunkSize)
	if len(subs) > s.maxPageChunks {
		subs = subs[:s.maxPageChunks]
	}

	kept := make([]string, 0, len(subs))
	for _, sub := range subs {
		if extract.RuneLen(sub) >= s.minChunkChars {
			kept = append(kept, sub)
		}
	}
	if len(kept) == 0 {
		return 0, "", nil
	}

	texts := make([]string, 0, len(kept)+1)
	texts = append(texts, chunk)
	texts = append(texts, kept...)

	vecs, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, "", fmt.Errorf("embed: %w", err)
	}
	if len(vecs) != len(texts) {
		return 0, "", fmt.Errorf("embed: got %d vectors for %d texts", len(vecs), len(texts))
	}

	best, bestSub := 0.0, ""
	for i, sub := range kept {
		sim := embed.Cosine(vecs[0], vecs[i+1]) * 100
		if sim > best {
			best, bestSub = sim, sub
		}
	}

	return Round2(best), bestSub, nil
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
