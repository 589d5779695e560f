package extract

import (
	"strings"

	"github.com/ppiankov/plagscan/internal/model"
)

// ChunkText splits text into pieces of at most size characters at fixed
// offsets. Pieces are trimmed and blank pieces are dropped; indices stay dense.
func ChunkText(text string, size int) []model.Chunk {
	pieces := SplitRunes(text, size)
	chunks := make([]model.Chunk, len(pieces))
	for i, p := range pieces {
		chunks[i] = model.Chunk{Index: i, Text: p}
	}
	return chunks
}

// SplitRunes is ChunkText without indices, used for sub-chunking fetched pages.
func SplitRunes(text string, size int) []string {
	text = strings.TrimSpace(text)
	if text == "" || size <= 0 {
		return nil
	}

	runes := []rune(text)
	out := make([]string, 0, len(runes)/size+1)
	for start := 0; start < len(runes); start += size {
		end := min(start+size, len(runes))
		if piece := strings.TrimSpace(string(runes[start:end])); piece != "" {
			out = append(out, piece)
		}
	}
	return out
}

// Truncate cuts s to at most n characters.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// RuneLen is the character length used by every size rule.
func RuneLen(s string) int {
	return len([]rune(s))
}
