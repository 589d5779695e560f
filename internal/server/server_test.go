package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/ppiankov/plagscan/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeScanner struct {
	text  string
	mode  string
	calls int
	err   error
}

func (f *fakeScanner) Scan(ctx context.Context, text, mode string) (*model.ScanResult, error) {
	f.calls++
	f.text, f.mode = text, mode
	if f.err != nil {
		return nil, f.err
	}
	if strings.TrimSpace(text) == "" {
		return nil, model.ErrNoText
	}
	return &model.ScanResult{
		ScanID:   "scan-1",
		ScanMode: model.ParseScanMode(mode),
		Summary:  model.Summary{TotalChunksAnalyzed: 1},
		Matches:  []model.MatchCandidate{},
	}, nil
}

func newTestServer(t *testing.T, scanner Scanner) *httptest.Server {
	t.Helper()
	h := NewHandler(scanner, model.DefaultConfig().Server, zaptest.NewLogger(t))
	srv := httptest.NewServer(h.Routes())
	t.Cleanup(srv.Close)
	return srv
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = fw.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Detail
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, map[string]string{"status": "ok", "message": "Backend is running"}, body)
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(data), "plagscan_http_requests_total")
}

func TestCheck_TextForm(t *testing.T) {
	scanner := &fakeScanner{}
	srv := newTestServer(t, scanner)

	resp, err := http.PostForm(srv.URL+"/check", url.Values{"text": {"some essay text"}, "scan_mode": {"deep"}})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))
	assert.Equal(t, "some essay text", scanner.text)
	assert.Equal(t, "deep", scanner.mode)

	var result model.ScanResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, model.ScanModeDeep, result.ScanMode)
}

func TestCheck_FileUploadWins(t *testing.T) {
	scanner := &fakeScanner{}
	srv := newTestServer(t, scanner)

	body, contentType := multipartBody(t, map[string]string{"text": "ignored"}, "essay.TXT", []byte("text from the file"))
	resp, err := http.Post(srv.URL+"/check", contentType, body)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text from the file", scanner.text)
	assert.Equal(t, "", scanner.mode)
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		content  []byte
		fields   map[string]string
		scanErr  error
		status   int
		detail   string
		scans    int
	}{
		{
			name:     "empty upload",
			filename: "essay.txt",
			content:  []byte{},
			status:   http.StatusBadRequest,
			detail:   "Uploaded file is empty.",
		},
		{
			name:     "unsupported format",
			filename: "essay.rtf",
			content:  []byte("{\\rtf1}"),
			status:   http.StatusBadRequest,
			detail:   "Unsupported file format. Please upload PDF, DOCX, or TXT.",
		},
		{
			name:     "oversized upload",
			filename: "essay.txt",
			content:  bytes.Repeat([]byte("a"), 5*1024*1024+1),
			status:   http.StatusBadRequest,
			detail:   "File too large. Max allowed size is 5 MB.",
		},
		{
			name:     "corrupt docx",
			filename: "essay.docx",
			content:  []byte("not a zip archive"),
			status:   http.StatusInternalServerError,
			detail:   "Failed to process uploaded file.",
		},
		{
			name:   "no text",
			fields: map[string]string{"text": "   "},
			status: http.StatusBadRequest,
			detail: "No text provided.",
			scans:  1,
		},
		{
			name:    "too short",
			fields:  map[string]string{"text": "x"},
			scanErr: model.ErrTextTooShort,
			status:  http.StatusBadRequest,
			detail:  "Text is too short to analyze meaningfully.",
			scans:   1,
		},
		{
			name:    "wrapped input error from scanner",
			fields:  map[string]string{"text": "fine text"},
			scanErr: fmt.Errorf("normalize: %w", model.ErrNoText),
			status:  http.StatusBadRequest,
			detail:  "No text provided.",
			scans:   1,
		},
		{
			name:    "pipeline failure",
			fields:  map[string]string{"text": "fine text"},
			scanErr: fmt.Errorf("process chunks: %w", errors.New("boom")),
			status:  http.StatusInternalServerError,
			detail:  "Error while processing text.",
			scans:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := &fakeScanner{err: tt.scanErr}
			srv := newTestServer(t, scanner)

			body, contentType := multipartBody(t, tt.fields, tt.filename, tt.content)
			resp, err := http.Post(srv.URL+"/check", contentType, body)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()

			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Equal(t, tt.detail, decodeDetail(t, resp))
			assert.Equal(t, tt.scans, scanner.calls)
		})
	}
}

func TestFormatList(t *testing.T) {
	assert.Equal(t, "PDF, DOCX, or TXT", formatList([]string{".pdf", ".docx", ".txt"}))
	assert.Equal(t, "PDF or TXT", formatList([]string{".pdf", ".txt"}))
	assert.Equal(t, "TXT", formatList([]string{".txt"}))
	assert.Equal(t, "", formatList(nil))
}

func TestCheck_BodyFarTooLarge(t *testing.T) {
	scanner := &fakeScanner{}
	h := NewHandler(scanner, model.DefaultConfig().Server, zaptest.NewLogger(t))

	body, contentType := multipartBody(t, nil, "essay.txt", bytes.Repeat([]byte("a"), 8*1024*1024))
	req := httptest.NewRequest(http.MethodPost, "/check", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var detail errorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&detail))
	assert.Equal(t, "File too large. Max allowed size is 5 MB.", detail.Detail)
	assert.Equal(t, 0, scanner.calls)
}

func TestCheck_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{})

	resp, err := http.Get(srv.URL + "/check")
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCORS(t *testing.T) {
	srv := newTestServer(t, &fakeScanner{})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/check", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "http://localhost:3000", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST")
	assert.Equal(t, "content-type", resp.Header.Get("Access-Control-Allow-Headers"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	cfg := model.DefaultConfig().Server
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	srv := httptest.NewServer(NewHandler(&fakeScanner{}, cfg, zaptest.NewLogger(t)).Routes())
	defer srv.Close()

	for origin, want := range map[string]string{
		"https://app.example.com":  "https://app.example.com",
		"https://evil.example.com": "",
	} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/health", nil)
		require.NoError(t, err)
		req.Header.Set("Origin", origin)

		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		assert.Equal(t, want, resp.Header.Get("Access-Control-Allow-Origin"), origin)
	}
}
