package model

import "strings"

// ScanMode selects how much of a document is analyzed.
type ScanMode string

const (
	ScanModeQuick ScanMode = "quick" // first QuickMaxChunks chunks only
	ScanModeDeep  ScanMode = "deep"  // every chunk
)

// ParseScanMode normalizes a user supplied mode. Unknown values fall back to quick.
func ParseScanMode(s string) ScanMode {
	switch ScanMode(strings.ToLower(strings.TrimSpace(s))) {
	case ScanModeDeep:
		return ScanModeDeep
	default:
		return ScanModeQuick
	}
}

// Match statuses shown to the user.
const (
	StatusProperlyCited     = "Properly Cited — No Plagiarism"
	StatusNoSignificant     = "No Significant Match Detected"
	StatusPotentialMatch    = "Potential Plagiarism — Add Citation or Rewrite"
	StatusHighRisk          = "High Risk — Strong Overlap, Citation Required"
	SourceCitationDetected  = "Citation Detected"
	RecommendationCited     = "This passage appears to be properly cited. Ensure your bibliography or reference list includes the full source details in a consistent citation style (e.g., APA, MLA, IEEE)."
	RecommendationPotential = "Part of this text closely matches an external source. Add a proper citation (author, year, page) and include the source in your reference list, or paraphrase more strongly."
	RecommendationHighRisk  = "This section is very similar to an external source. Either rewrite it in your own words OR keep the wording but add a clear in-text citation and full reference (APA/MLA/IEEE)."
)

// MatchCandidate is one (chunk, source) similarity finding, or the
// citation-safe marker for a chunk that carries a citation.
type MatchCandidate struct {
	ChunkIndex     int     `json:"chunk_index"`
	Chunk          string  `json:"chunk"`
	Source         string  `json:"source"`
	Similarity     float64 `json:"similarity"`
	MatchedContent string  `json:"matched_content"`
	CitationSafe   bool    `json:"citation_safe"`
	CitationStyle  string  `json:"citation_style,omitempty"`
	Status         string  `json:"status"`
	Recommendation string  `json:"recommendation"`
}

// Summary counts distinct chunk indices.
type Summary struct {
	TotalChunksAnalyzed int `json:"total_chunks_analyzed"`
	ChunksWithMatches   int `json:"chunks_with_matches"`
	CitationSafeChunks  int `json:"citation_safe_chunks"`
}

// ScanResult is the response for one scan request.
type ScanResult struct {
	ScanID            string           `json:"scan_id"`
	ScanMode          ScanMode         `json:"scan_mode"`
	PlagiarismPercent float64          `json:"plagiarism_percent"`
	Summary           Summary          `json:"summary"`
	Matches           []MatchCandidate `json:"matches"`
}

// StatusFor maps a similarity percentage to a status and recommendation.
func StatusFor(similarity, threshold, highRisk float64) (status, recommendation string) {
	switch {
	case similarity >= highRisk:
		return StatusHighRisk, RecommendationHighRisk
	case similarity >= threshold:
		return StatusPotentialMatch, RecommendationPotential
	default:
		return StatusNoSignificant, ""
	}
}
