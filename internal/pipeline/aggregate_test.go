package pipeline

import (
	"testing"

	"github.com/ppiankov/plagscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var defaultAggregate = AggregateOptions{Threshold: 30, MaxMatches: 20}

func match(idx int, source string, sim float64) model.MatchCandidate {
	return model.MatchCandidate{ChunkIndex: idx, Source: source, Similarity: sim}
}

func cited(idx int) model.MatchCandidate {
	return model.MatchCandidate{ChunkIndex: idx, Source: model.SourceCitationDetected, CitationSafe: true}
}

func TestAggregate_Empty(t *testing.T) {
	res := Aggregate(4, nil, defaultAggregate)
	assert.Equal(t, 0.0, res.PlagiarismPercent)
	assert.Equal(t, model.Summary{TotalChunksAnalyzed: 4}, res.Summary)
	assert.NotNil(t, res.Matches)
	assert.Empty(t, res.Matches)
}

func TestAggregate_ZeroChunks(t *testing.T) {
	res := Aggregate(0, []model.MatchCandidate{match(0, "a", 50)}, defaultAggregate)
	assert.Equal(t, 0.0, res.PlagiarismPercent)
}

func TestAggregate_PercentCountsDistinctChunks(t *testing.T) {
	candidates := []model.MatchCandidate{
		match(0, "https://a", 80),
		match(0, "https://b", 70),
		match(0, "https://c", 40),
		match(2, "https://d", 35),
	}
	res := Aggregate(3, candidates, defaultAggregate)

	// Chunk 0 has three sources but counts once: 2 of 3 chunks.
	assert.Equal(t, 66.67, res.PlagiarismPercent)
	assert.Equal(t, 2, res.Summary.ChunksWithMatches)
	assert.Equal(t, 0, res.Summary.CitationSafeChunks)
}

func TestAggregate_BelowThresholdIgnored(t *testing.T) {
	res := Aggregate(2, []model.MatchCandidate{match(0, "https://a", 29.99)}, defaultAggregate)
	assert.Equal(t, 0.0, res.PlagiarismPercent)
	assert.Equal(t, 0, res.Summary.ChunksWithMatches)
	assert.Len(t, res.Matches, 1)
}

func TestAggregate_CitationSafeNeverPlagiarized(t *testing.T) {
	candidates := []model.MatchCandidate{
		cited(1),
		match(1, "https://a", 90),
		match(2, "https://b", 50),
	}
	res := Aggregate(4, candidates, defaultAggregate)

	assert.Equal(t, 25.0, res.PlagiarismPercent)
	assert.Equal(t, 1, res.Summary.ChunksWithMatches)
	assert.Equal(t, 1, res.Summary.CitationSafeChunks)
}

func TestAggregate_SortAndDedup(t *testing.T) {
	candidates := []model.MatchCandidate{
		cited(4),
		match(0, "https://shared", 40),
		match(1, "https://shared", 75),
		match(2, "https://only", 55),
		cited(5),
		match(3, "https://shared", 75),
	}
	res := Aggregate(6, candidates, defaultAggregate)

	require.Len(t, res.Matches, 4)
	// Stable: chunk 1 came before chunk 3 at the same similarity.
	assert.Equal(t, match(1, "https://shared", 75), res.Matches[0])
	assert.Equal(t, match(2, "https://only", 55), res.Matches[1])
	// Both citation markers survive despite sharing a source.
	assert.Equal(t, cited(4), res.Matches[2])
	assert.Equal(t, cited(5), res.Matches[3])

	// Counts come from every candidate, not the deduplicated list.
	assert.Equal(t, 4, res.Summary.ChunksWithMatches)
	assert.Equal(t, 2, res.Summary.CitationSafeChunks)
	assert.Equal(t, 66.67, res.PlagiarismPercent)
}

func TestAggregate_Truncates(t *testing.T) {
	var candidates []model.MatchCandidate
	for i := 0; i < 30; i++ {
		candidates = append(candidates, match(i, "https://s"+string(rune('a'+i)), float64(31+i)))
	}
	res := Aggregate(30, candidates, defaultAggregate)

	require.Len(t, res.Matches, 20)
	assert.Equal(t, 60.0, res.Matches[0].Similarity)
	assert.Equal(t, 41.0, res.Matches[19].Similarity)
	assert.Equal(t, 100.0, res.PlagiarismPercent)
	assert.Equal(t, 30, res.Summary.ChunksWithMatches)
}

func TestAggregate_DoesNotMutateInput(t *testing.T) {
	candidates := []model.MatchCandidate{match(0, "https://a", 40), match(1, "https://b", 90)}
	Aggregate(2, candidates, defaultAggregate)
	assert.Equal(t, 40.0, candidates[0].Similarity)
}
