// Package server exposes the scan pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/metrics"
	"github.com/ppiankov/plagscan/internal/model"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Client-facing error messages.
const (
	msgEmptyUpload   = "Uploaded file is empty."
	msgExtractFailed = "Failed to process uploaded file."
	msgNoText        = "No text provided."
	msgTooShort      = "Text is too short to analyze meaningfully."
	msgScanFailed    = "Error while processing text."
	msgBadForm       = "Invalid form data."
)

var msgUnsupported = "Unsupported file format. Please upload " + formatList(extract.SupportedExtensions) + "."

// Multipart framing allowance on top of the upload limit.
const formOverheadBytes = 1 << 20

// Scanner runs a plagiarism scan.
type Scanner interface {
	Scan(ctx context.Context, text, mode string) (*model.ScanResult, error)
}

// Handler serves the plagscan API.
type Handler struct {
	scanner Scanner
	cfg     model.ServerConfig
	logger  *zap.Logger
}

// NewHandler creates a new handler.
func NewHandler(scanner Scanner, cfg model.ServerConfig, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{scanner: scanner, cfg: cfg, logger: logger}
}

// RegisterRoutes registers API routes on the provided mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /check", h.handleCheck)
	mux.HandleFunc("GET /health", h.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
}

// Routes returns the API with CORS and request logging applied.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return h.logRequests(cors(h.cfg.AllowedOrigins, mux))
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"message": "Backend is running",
	})
}

func (h *Handler) handleCheck(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxUploadBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes+formOverheadBytes)
	}

	if err := parseForm(r); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusBadRequest, h.tooLargeMessage())
			return
		}
		h.logger.Warn("invalid form", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadForm)
		return
	}

	text := r.FormValue("text")
	mode := r.FormValue("scan_mode")

	file, header, err := uploadedFile(r)
	switch {
	case err == nil:
		defer func() { _ = file.Close() }()
		data, readErr := io.ReadAll(file)
		if readErr != nil {
			h.logger.Error("read upload", zap.Error(readErr))
			writeError(w, http.StatusInternalServerError, msgExtractFailed)
			return
		}
		h.logger.Info("processing uploaded file", zap.String("filename", header.Filename), zap.Int("bytes", len(data)))
		text, err = extract.ExtractDocument(header.Filename, data, h.cfg.MaxUploadBytes, h.logger)
		if err != nil {
			h.writeFailure(w, err, "document extraction failed", msgExtractFailed)
			return
		}
	case errors.Is(err, http.ErrMissingFile):
	default:
		h.logger.Warn("invalid file field", zap.Error(err))
		writeError(w, http.StatusBadRequest, msgBadForm)
		return
	}

	ctx := r.Context()
	if h.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.cfg.RequestTimeout)
		defer cancel()
	}

	result, err := h.scanner.Scan(ctx, text, mode)
	if err != nil {
		h.writeFailure(w, err, "scan failed", msgScanFailed)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// writeFailure answers input errors with a 400 and their client message.
// Anything else is logged and answered with a 500 carrying fallback.
func (h *Handler) writeFailure(w http.ResponseWriter, err error, logMsg, fallback string) {
	if !model.IsInputError(err) {
		h.logger.Error(logMsg, zap.Error(err))
		writeError(w, http.StatusInternalServerError, fallback)
		return
	}
	writeError(w, http.StatusBadRequest, h.inputMessage(err))
}

func (h *Handler) inputMessage(err error) string {
	switch {
	case errors.Is(err, model.ErrNoText):
		return msgNoText
	case errors.Is(err, model.ErrTextTooShort):
		return msgTooShort
	case errors.Is(err, model.ErrEmptyUpload):
		return msgEmptyUpload
	case errors.Is(err, model.ErrUploadTooLarge):
		return h.tooLargeMessage()
	default:
		return msgUnsupported
	}
}

// formatList renders [".pdf", ".docx", ".txt"] as "PDF, DOCX, or TXT".
func formatList(exts []string) string {
	names := make([]string, len(exts))
	for i, ext := range exts {
		names[i] = strings.ToUpper(strings.TrimPrefix(ext, "."))
	}
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " or " + names[1]
	}
	names[len(names)-1] = "or " + names[len(names)-1]
	return strings.Join(names, ", ")
}

func (h *Handler) tooLargeMessage() string {
	return fmt.Sprintf("File too large. Max allowed size is %d MB.", h.cfg.MaxUploadBytes/(1024*1024))
}

func isBodyTooLarge(err error) bool {
	var tooBig *http.MaxBytesError
	// Some multipart paths flatten the error to text.
	return errors.As(err, &tooBig) || strings.Contains(err.Error(), "request body too large")
}

// parseForm accepts multipart and urlencoded bodies.
func parseForm(r *http.Request) error {
	err := r.ParseMultipartForm(32 << 20)
	if errors.Is(err, http.ErrNotMultipart) {
		return r.ParseForm()
	}
	return err
}

// uploadedFile returns http.ErrMissingFile for urlencoded requests instead
// of re-parsing the body as multipart.
func uploadedFile(r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	if r.MultipartForm == nil {
		return nil, nil, http.ErrMissingFile
	}
	return r.FormFile("file")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		h.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)))
	})
}

func cors(allowed []string, next http.Handler) http.Handler {
	allowAll := false
	origins := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			allowAll = true
		}
		origins[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || origins[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Add("Vary", "Origin")
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			if reqHeaders := r.Header.Get("Access-Control-Request-Headers"); reqHeaders != "" {
				w.Header().Set("Access-Control-Allow-Headers", reqHeaders)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// New builds an http.Server for the API. WriteTimeout leaves room for the
// scan timeout.
func New(addr string, handler http.Handler, cfg model.ServerConfig) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting api server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
