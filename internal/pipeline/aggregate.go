package pipeline

import (
	"sort"

	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/score"
)

// AggregateOptions carries the thresholds aggregation depends on.
type AggregateOptions struct {
	Threshold  float64
	MaxMatches int
}

// Aggregate merges every chunk's candidates into the scan result. The
// percentage counts distinct plagiarized chunks; a chunk that is
// citation-safe is never counted as plagiarized.
func Aggregate(totalChunks int, candidates []model.MatchCandidate, opts AggregateOptions) *model.ScanResult {
	cited := make(map[int]struct{})
	plagiarized := make(map[int]struct{})
	for _, c := range candidates {
		if c.CitationSafe {
			cited[c.ChunkIndex] = struct{}{}
		}
	}
	for _, c := range candidates {
		if c.CitationSafe || c.Similarity < opts.Threshold {
			continue
		}
		if _, ok := cited[c.ChunkIndex]; ok {
			continue
		}
		plagiarized[c.ChunkIndex] = struct{}{}
	}

	percent := 0.0
	if totalChunks > 0 {
		percent = score.Round2(float64(len(plagiarized)) / float64(totalChunks) * 100)
	}

	sorted := make([]model.MatchCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Similarity > sorted[j].Similarity
	})

	seen := make(map[string]struct{})
	matches := make([]model.MatchCandidate, 0, min(len(sorted), max(opts.MaxMatches, 0)))
	for _, c := range sorted {
		if opts.MaxMatches > 0 && len(matches) >= opts.MaxMatches {
			break
		}
		if !c.CitationSafe {
			if _, dup := seen[c.Source]; dup {
				continue
			}
			seen[c.Source] = struct{}{}
		}
		matches = append(matches, c)
	}

	return &model.ScanResult{
		PlagiarismPercent: percent,
		Summary: model.Summary{
			TotalChunksAnalyzed: totalChunks,
			ChunksWithMatches:   len(plagiarized),
			CitationSafeChunks:  len(cited),
		},
		Matches: matches,
	}
}
