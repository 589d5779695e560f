package embed

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXConfig locates a sentence-transformer exported to ONNX.
type ONNXConfig struct {
	LibraryPath   string // onnxruntime shared library; empty uses the platform default
	ModelPath     string
	TokenizerPath string // HuggingFace tokenizer.json
	MaxSeqLen     int
	ModelID       string
}

var (
	ortInitOnce sync.Once
	ortInitErr  error
)

// The onnxruntime environment is process-global.
func initORT(libraryPath string) error {
	ortInitOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		ortInitErr = ort.InitializeEnvironment()
	})
	return ortInitErr
}

// ONNXEmbedder runs a BERT-style encoder locally and mean-pools the last
// hidden state into a unit-length sentence vector.
type ONNXEmbedder struct {
	cfg     ONNXConfig
	tk      *tokenizer.Tokenizer
	session *ort.DynamicAdvancedSession

	mu     sync.RWMutex
	closed bool
}

// NewONNXEmbedder loads the tokenizer and model. It is expensive; call once.
func NewONNXEmbedder(cfg ONNXConfig) (*ONNXEmbedder, error) {
	if cfg.ModelPath == "" || cfg.TokenizerPath == "" {
		return nil, errors.New("onnx embedder needs model_path and tokenizer_path")
	}
	if cfg.MaxSeqLen <= 0 {
		cfg.MaxSeqLen = 128
	}
	if cfg.ModelID == "" {
		cfg.ModelID = filepath.Base(filepath.Dir(cfg.ModelPath))
	}

	if err := initORT(cfg.LibraryPath); err != nil {
		return nil, fmt.Errorf("initialize onnxruntime: %w", err)
	}

	tk, err := pretrained.FromFile(cfg.TokenizerPath)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{"last_hidden_state"},
		nil)
	if err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}

	return &ONNXEmbedder{cfg: cfg, tk: tk, session: session}, nil
}

// Name returns the provider name
func (e *ONNXEmbedder) Name() string {
	return "onnx"
}

// ModelID returns the model identifier
func (e *ONNXEmbedder) ModelID() string {
	return e.cfg.ModelID
}

// Embed embeds a single text
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch runs all texts through the model in a single inference call.
// Inference itself cannot be interrupted; ctx is only checked before it starts.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return nil, errors.New("embedder is closed")
	}

	batch, err := e.encode(texts)
	if err != nil {
		return nil, err
	}

	shape := ort.NewShape(int64(batch.size), int64(batch.seqLen))
	ids, err := ort.NewTensor(shape, batch.ids)
	if err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	defer func() { _ = ids.Destroy() }()

	mask, err := ort.NewTensor(shape, batch.mask)
	if err != nil {
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	defer func() { _ = mask.Destroy() }()

	typeIDs, err := ort.NewTensor(shape, batch.typeIDs)
	if err != nil {
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	defer func() { _ = typeIDs.Destroy() }()

	// A nil output is allocated by onnxruntime with the model's hidden size.
	outputs := []ort.Value{nil}
	if err := e.session.Run([]ort.Value{ids, mask, typeIDs}, outputs); err != nil {
		return nil, fmt.Errorf("run model: %w", err)
	}
	defer func() { _ = outputs[0].Destroy() }()

	hidden, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("unexpected output type %T", outputs[0])
	}
	dims := hidden.GetShape()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}

	return meanPool(hidden.GetData(), batch.mask, batch.size, batch.seqLen, int(dims[2])), nil
}

// Close releases the session. The process-wide environment stays up.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	return e.session.Destroy()
}

type encodedBatch struct {
	size    int
	seqLen  int
	ids     []int64
	mask    []int64
	typeIDs []int64
}

func (e *ONNXEmbedder) encode(texts []string) (*encodedBatch, error) {
	rows := make([]*tokenizer.Encoding, len(texts))
	seqLen := 1
	for i, t := range texts {
		en, err := e.tk.EncodeSingle(NormalizeText(t), true)
		if err != nil {
			return nil, fmt.Errorf("tokenize: %w", err)
		}
		rows[i] = en
		seqLen = max(seqLen, min(len(en.Ids), e.cfg.MaxSeqLen))
	}

	b := &encodedBatch{
		size:    len(texts),
		seqLen:  seqLen,
		ids:     make([]int64, len(texts)*seqLen),
		mask:    make([]int64, len(texts)*seqLen),
		typeIDs: make([]int64, len(texts)*seqLen),
	}
	for i, en := range rows {
		ids, mask, types := truncateEncoding(en.Ids, en.AttentionMask, en.TypeIds, e.cfg.MaxSeqLen)
		off := i * seqLen
		for j := range ids {
			b.ids[off+j] = int64(ids[j])
			b.mask[off+j] = int64(mask[j])
			if j < len(types) {
				b.typeIDs[off+j] = int64(types[j])
			}
		}
	}
	return b, nil
}

// truncateEncoding cuts an encoding to maxLen tokens, keeping the final
// special token so the sequence stays well formed.
func truncateEncoding(ids, mask, types []int, maxLen int) ([]int, []int, []int) {
	if len(ids) <= maxLen || maxLen < 2 {
		return ids, mask, types
	}
	last := len(ids) - 1
	cut := func(s []int) []int {
		if len(s) != len(ids) {
			return s[:min(len(s), maxLen)]
		}
		out := make([]int, maxLen)
		copy(out, s[:maxLen-1])
		out[maxLen-1] = s[last]
		return out
	}
	return cut(ids), cut(mask), cut(types)
}

// meanPool averages token vectors under the attention mask and normalizes
// each sentence vector to unit length.
func meanPool(hidden []float32, mask []int64, batch, seqLen, dim int) [][]float32 {
	out := make([][]float32, batch)
	for b := 0; b < batch; b++ {
		vec := make([]float32, dim)
		var count float32
		for t := 0; t < seqLen; t++ {
			if mask[b*seqLen+t] == 0 {
				continue
			}
			count++
			base := (b*seqLen + t) * dim
			for d := 0; d < dim; d++ {
				vec[d] += hidden[base+d]
			}
		}
		if count > 0 {
			for d := range vec {
				vec[d] /= count
			}
		}
		l2Normalize(vec)
		out[b] = vec
	}
	return out
}
