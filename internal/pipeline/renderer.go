package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/model"
)

// Renderer writes scan results for CLI users.
type Renderer struct {
	previewChars int
}

// NewRenderer creates a renderer with the default preview width.
func NewRenderer() *Renderer {
	return &Renderer{previewChars: 80}
}

// RenderJSON writes result as indented JSON, creating parent directories.
func (r *Renderer) RenderJSON(result *model.ScanResult, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// WriteJSON streams result as indented JSON.
func (r *Renderer) WriteJSON(w io.Writer, result *model.ScanResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// RenderSummary prints a human-readable digest of result.
func (r *Renderer) RenderSummary(w io.Writer, result *model.ScanResult) {
	_, _ = fmt.Fprintf(w, "\nScan %s (%s)\n", result.ScanID, result.ScanMode)
	_, _ = fmt.Fprintf(w, "Plagiarism: %.2f%%\n", result.PlagiarismPercent)
	_, _ = fmt.Fprintf(w, "Chunks analyzed: %d, with matches: %d, citation-safe: %d\n",
		result.Summary.TotalChunksAnalyzed,
		result.Summary.ChunksWithMatches,
		result.Summary.CitationSafeChunks)

	if len(result.Matches) == 0 {
		_, _ = fmt.Fprintln(w, "No matches.")
		return
	}

	_, _ = fmt.Fprintln(w, "\nMatches:")
	for _, m := range result.Matches {
		if m.CitationSafe {
			_, _ = fmt.Fprintf(w, "  [chunk %d] %s (%s)\n", m.ChunkIndex, m.Status, m.CitationStyle)
			continue
		}
		_, _ = fmt.Fprintf(w, "  [chunk %d] %.2f%% %s\n", m.ChunkIndex, m.Similarity, m.Source)
		_, _ = fmt.Fprintf(w, "      %s\n", m.Status)
		if preview := extract.Truncate(extract.CollapseWhitespace(m.MatchedContent), r.previewChars); preview != "" {
			_, _ = fmt.Fprintf(w, "      \"%s\"\n", preview)
		}
	}
}
