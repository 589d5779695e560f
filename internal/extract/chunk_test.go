package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkText_Empty(t *testing.T) {
	assert.Empty(t, ChunkText("", 700))
	assert.Empty(t, ChunkText("   \n\t  ", 700))
}

func TestChunkText_Sizes(t *testing.T) {
	text := strings.Repeat("abcdefghij", 150) // 1500 chars

	chunks := ChunkText(text, 700)
	require.Len(t, chunks, 3)
	assert.Len(t, chunks[0].Text, 700)
	assert.Len(t, chunks[1].Text, 700)
	assert.Len(t, chunks[2].Text, 100)

	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
	}
	assert.Equal(t, text, chunks[0].Text+chunks[1].Text+chunks[2].Text)
}

func TestChunkText_DropsBlankPieces(t *testing.T) {
	text := "aaaa" + strings.Repeat(" ", 8) + "bb"

	chunks := ChunkText(text, 4)
	require.Len(t, chunks, 2)
	assert.Equal(t, "aaaa", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Index)
	assert.Equal(t, "bb", chunks[1].Text)
	assert.Equal(t, 1, chunks[1].Index, "indices stay dense after dropping blanks")
}

func TestChunkText_CountsCharactersNotBytes(t *testing.T) {
	text := strings.Repeat("é", 10)

	chunks := ChunkText(text, 4)
	require.Len(t, chunks, 3)
	assert.Equal(t, 4, RuneLen(chunks[0].Text))
	assert.Equal(t, 2, RuneLen(chunks[2].Text))
}

func TestChunkText_Property(t *testing.T) {
	texts := []string{
		"short",
		strings.Repeat("word ", 333),
		strings.Repeat("x", 700),
		strings.Repeat("x", 701),
	}
	for _, text := range texts {
		chunks := ChunkText(text, 700)
		maxChunks := (RuneLen(strings.TrimSpace(text)) + 699) / 700
		assert.LessOrEqual(t, len(chunks), maxChunks)
		for _, c := range chunks {
			assert.LessOrEqual(t, RuneLen(c.Text), 700)
			assert.NotEmpty(t, c.Text)
			assert.Equal(t, strings.TrimSpace(c.Text), c.Text)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "éé", Truncate("ééé", 2))
	assert.Equal(t, "abc", Truncate("abc", 0))
}
