// Package embedtest provides a deterministic in-memory Embedder for tests.
package embedtest

import (
	"context"
	"hash/fnv"
	"strings"
	"sync"
	"sync/atomic"
	"unicode"
)

const dims = 256

// HashEmbedder embeds text as a hashed bag of lowercase words. Identical
// texts get identical vectors; texts sharing no words are orthogonal.
type HashEmbedder struct {
	// Err, when set, is returned by every call.
	Err error
	// FailOn makes calls containing this text fail with Err.
	FailOn string

	calls atomic.Int64
	mu    sync.Mutex
	texts [][]string
}

// Name returns the provider name
func (h *HashEmbedder) Name() string { return "hash" }

// ModelID returns the model identifier
func (h *HashEmbedder) ModelID() string { return "hash-bow-256" }

// Close is a no-op
func (h *HashEmbedder) Close() error { return nil }

// Calls returns the number of EmbedBatch calls made so far.
func (h *HashEmbedder) Calls() int { return int(h.calls.Load()) }

// Batches returns a copy of every batch received.
func (h *HashEmbedder) Batches() [][]string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([][]string, len(h.texts))
	copy(out, h.texts)
	return out
}

// Embed embeds a single text
func (h *HashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	v, err := h.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return v[0], nil
}

// EmbedBatch embeds texts
func (h *HashEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	h.calls.Add(1)
	h.mu.Lock()
	h.texts = append(h.texts, append([]string(nil), texts...))
	h.mu.Unlock()

	if h.Err != nil {
		if h.FailOn == "" {
			return nil, h.Err
		}
		for _, t := range texts {
			if strings.Contains(t, h.FailOn) {
				return nil, h.Err
			}
		}
	}

	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = vector(t)
	}
	return out, nil
}

func vector(text string) []float32 {
	vec := make([]float32, dims)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		f := fnv.New32a()
		_, _ = f.Write([]byte(w))
		vec[f.Sum32()%dims]++
	}
	return vec
}
