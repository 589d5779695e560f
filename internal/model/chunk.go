package model

// Chunk is a contiguous slice of the submitted text. Index is unique within a
// scan and joins matches back to the chunk they were found for.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// CitationVerdict is the outcome of citation detection for one chunk.
type CitationVerdict struct {
	IsCited bool   `json:"is_cited"`
	Style   string `json:"style,omitempty"`
}

// SearchHit is a candidate source returned by a search provider.
// URL has already passed the URL safety filter.
type SearchHit struct {
	URL     string `json:"url"`
	Snippet string `json:"snippet,omitempty"`
}
