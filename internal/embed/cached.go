package embed

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/ppiankov/plagscan/internal/cache"
)

// CachedEmbedder memoizes vectors by model and normalized text. Only misses
// reach the wrapped embedder, still as one batch.
type CachedEmbedder struct {
	inner Embedder
	store cache.Cache
	ttl   time.Duration
}

// NewCachedEmbedder wraps inner with store.
func NewCachedEmbedder(inner Embedder, store cache.Cache, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, store: store, ttl: ttl}
}

// Name returns the wrapped provider name
func (c *CachedEmbedder) Name() string {
	return c.inner.Name()
}

// ModelID returns the wrapped model identifier
func (c *CachedEmbedder) ModelID() string {
	return c.inner.ModelID()
}

// Embed embeds a single text
func (c *CachedEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := c.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch serves hits from the cache and embeds the rest in one call.
func (c *CachedEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	keys := make([]string, len(texts))

	var missIdx []int
	var missTexts []string
	for i, t := range texts {
		keys[i] = cache.Key("embed", c.inner.ModelID(), NormalizeText(t))
		if data, ok := c.store.Get(ctx, keys[i]); ok {
			if vec, err := decodeVector(data); err == nil {
				out[i] = vec
				continue
			}
		}
		missIdx = append(missIdx, i)
		missTexts = append(missTexts, t)
	}

	if len(missTexts) == 0 {
		return out, nil
	}

	vecs, err := c.inner.EmbedBatch(ctx, missTexts)
	if err != nil {
		return nil, err
	}
	for j, i := range missIdx {
		out[i] = vecs[j]
		_ = c.store.Set(ctx, keys[i], encodeVector(vecs[j]), c.ttl)
	}
	return out, nil
}

// Close closes the wrapped embedder
func (c *CachedEmbedder) Close() error {
	return c.inner.Close()
}

func encodeVector(vec []float32) []byte {
	buf := make([]byte, 4+len(vec)*4)
	binary.LittleEndian.PutUint32(buf[:4], uint32(len(vec)))
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[4+i*4:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(data []byte) ([]float32, error) {
	if len(data) < 4 {
		return nil, fmt.Errorf("cached vector too small")
	}
	n := int(binary.LittleEndian.Uint32(data[:4]))
	data = data[4:]
	if len(data) != n*4 {
		return nil, fmt.Errorf("cached vector length mismatch")
	}
	vec := make([]float32, n)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
