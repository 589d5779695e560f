package embed

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ppiankov/plagscan/internal/cache"
	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/ppiankov/plagscan/internal/util"
)

// New creates the configured embedder. When store is non-nil and embedding
// caching is enabled, vectors are memoized in it.
func New(cfg model.EmbeddingConfig, httpCfg model.HTTPConfig, store cache.Cache, cacheTTL time.Duration) (Embedder, error) {
	var (
		e   Embedder
		err error
	)

	switch strings.ToLower(cfg.Provider) {
	case "onnx", "":
		e, err = NewONNXEmbedder(ONNXConfig{
			LibraryPath:   cfg.LibraryPath,
			ModelPath:     cfg.ModelPath,
			TokenizerPath: cfg.TokenizerPath,
			MaxSeqLen:     cfg.MaxSeqLen,
			ModelID:       cfg.Model,
		})

	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("OPENAI_API_KEY")
		}
		e, err = NewOpenAIEmbedder(apiKey, cfg.Model, cfg.BaseURL, &http.Client{
			Timeout:   cfg.Timeout,
			Transport: &http.Transport{Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)},
		})

	case "ollama":
		baseURL := cfg.BaseURL
		if baseURL == "" {
			baseURL = os.Getenv("OLLAMA_BASE_URL")
		}
		e, err = NewOllamaEmbedder(baseURL, cfg.Model, cfg.Timeout,
			&http.Transport{Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy)})

	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, openai, ollama)", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	e = &instrumented{Embedder: e}
	if cfg.Cache && store != nil {
		e = NewCachedEmbedder(e, store, cacheTTL)
	}
	return e, nil
}

// instrumented records batch latency.
type instrumented struct {
	Embedder
}

func (i *instrumented) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	defer metrics.ObserveEmbedding(i.Name(), time.Now())
	return i.Embedder.EmbedBatch(ctx, texts)
}

func (i *instrumented) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := i.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}
