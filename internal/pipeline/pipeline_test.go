package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ppiankov/plagscan/internal/embed/embedtest"
	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type stubProvider struct {
	hits  []model.SearchHit
	calls atomic.Int32
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) Search(_ context.Context, _ *http.Client, _ string, _ int) ([]model.SearchHit, error) {
	p.calls.Add(1)
	return p.hits, nil
}

// allowLoopback lets the scan reach httptest servers on 127.0.0.1.
func allowLoopback(t *testing.T) {
	t.Helper()
	orig := safeURL
	safeURL = allowAll
	t.Cleanup(func() { safeURL = orig })
}

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.Search.Timeout = 5 * time.Second
	return cfg
}

func newTestPipeline(t *testing.T, provider *stubProvider, emb *embedtest.HashEmbedder) *Pipeline {
	t.Helper()
	return NewPipeline(testConfig(), emb, provider, nil, zaptest.NewLogger(t))
}

func loremText(chars int) string {
	return extract.Truncate(strings.Repeat("lorem ipsum dolor sit amet ", chars/27+1), chars)
}

func TestScan_CitedChunk(t *testing.T) {
	provider := &stubProvider{}
	p := newTestPipeline(t, provider, &embedtest.HashEmbedder{})

	text := "Leaf area strongly predicts growth rate in temperate forests (Smith, 2020). " +
		strings.Repeat("Canopy structure also matters for light capture. ", 3)
	text = extract.Truncate(text, 200)
	require.Equal(t, 200, extract.RuneLen(text))

	res, err := p.Scan(context.Background(), text, "quick")
	require.NoError(t, err)

	assert.Equal(t, model.ScanModeQuick, res.ScanMode)
	assert.Equal(t, 0.0, res.PlagiarismPercent)
	assert.Equal(t, model.Summary{TotalChunksAnalyzed: 1, CitationSafeChunks: 1}, res.Summary)
	require.Len(t, res.Matches, 1)
	assert.True(t, res.Matches[0].CitationSafe)
	assert.Equal(t, int32(0), provider.calls.Load())

	_, err = uuid.Parse(res.ScanID)
	assert.NoError(t, err)
}

func TestScan_QuickModeCapsChunks(t *testing.T) {
	provider := &stubProvider{}
	p := newTestPipeline(t, provider, &embedtest.HashEmbedder{})

	text := loremText(20 * 700)

	res, err := p.Scan(context.Background(), text, "quick")
	require.NoError(t, err)
	assert.Equal(t, 15, res.Summary.TotalChunksAnalyzed)
	assert.Equal(t, int32(15), provider.calls.Load())
	assert.Equal(t, 0.0, res.PlagiarismPercent)
	assert.Empty(t, res.Matches)

	res, err = p.Scan(context.Background(), text, "DEEP")
	require.NoError(t, err)
	assert.Equal(t, model.ScanModeDeep, res.ScanMode)
	assert.Equal(t, 20, res.Summary.TotalChunksAnalyzed)
}

func TestScan_UnknownModeIsQuick(t *testing.T) {
	p := newTestPipeline(t, &stubProvider{}, &embedtest.HashEmbedder{})
	res, err := p.Scan(context.Background(), loremText(300), "thorough")
	require.NoError(t, err)
	assert.Equal(t, model.ScanModeQuick, res.ScanMode)
}

func TestScan_RejectsBlankText(t *testing.T) {
	provider := &stubProvider{}
	emb := &embedtest.HashEmbedder{}
	p := newTestPipeline(t, provider, emb)

	for _, text := range []string{"", "   \n\t "} {
		_, err := p.Scan(context.Background(), text, "quick")
		assert.ErrorIs(t, err, model.ErrNoText)
		assert.True(t, model.IsInputError(err))
	}
	assert.Equal(t, int32(0), provider.calls.Load())
	assert.Equal(t, 0, emb.Calls())
}

func TestScan_VerbatimMatch(t *testing.T) {
	allowLoopback(t)

	chunk := loremText(700)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = fmt.Fprintf(w, "<html><body><p>%s</p><p>%s</p></body></html>",
			chunk, strings.Repeat("completely unrelated botanical vocabulary here ", 20))
	}))
	defer server.Close()

	provider := &stubProvider{hits: []model.SearchHit{
		{URL: server.URL + "/copied", Snippet: "lorem ipsum"},
		{URL: server.URL + "/copied", Snippet: "lorem ipsum"},
	}}
	p := newTestPipeline(t, provider, &embedtest.HashEmbedder{})

	res, err := p.Scan(context.Background(), chunk, "quick")
	require.NoError(t, err)

	assert.Equal(t, 100.0, res.PlagiarismPercent)
	assert.Equal(t, 1, res.Summary.ChunksWithMatches)
	require.Len(t, res.Matches, 1, "duplicate sources collapse")

	m := res.Matches[0]
	assert.Equal(t, server.URL+"/copied", m.Source)
	assert.GreaterOrEqual(t, m.Similarity, 90.0)
	assert.Equal(t, chunk, m.MatchedContent)
	assert.Equal(t, model.StatusHighRisk, m.Status)
}

func TestScan_EmbeddingFailureDegrades(t *testing.T) {
	allowLoopback(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = fmt.Fprint(w, loremText(400))
	}))
	defer server.Close()

	provider := &stubProvider{hits: []model.SearchHit{{URL: server.URL}}}
	emb := &embedtest.HashEmbedder{Err: errors.New("model unavailable")}
	p := newTestPipeline(t, provider, emb)

	res, err := p.Scan(context.Background(), loremText(300), "quick")
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.PlagiarismPercent)
	assert.Empty(t, res.Matches)
	assert.Equal(t, 1, emb.Calls())
}

func TestScan_UnsafeResultsNeverFetched(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer server.Close()

	provider := &stubProvider{hits: []model.SearchHit{{URL: server.URL, Snippet: loremText(300)}}}
	p := newTestPipeline(t, provider, &embedtest.HashEmbedder{})

	res, err := p.Scan(context.Background(), loremText(300), "quick")
	require.NoError(t, err)
	assert.Empty(t, res.Matches)
	assert.Equal(t, int32(0), hits.Load())
}

func TestScan_Cancelled(t *testing.T) {
	p := newTestPipeline(t, &stubProvider{}, &embedtest.HashEmbedder{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.Scan(ctx, loremText(300), "quick")
	assert.Nil(t, res)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, model.IsInputError(err))
}
