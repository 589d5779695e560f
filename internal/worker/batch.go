package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/ppiankov/plagscan/internal/model"
	"go.uber.org/zap"
)

// Scanner checks a document's text
type Scanner interface {
	Scan(ctx context.Context, text, mode string) (*model.ScanResult, error)
}

// DocumentJob scans one file from disk
type DocumentJob struct {
	Index    int
	Path     string
	Mode     string
	MaxBytes int64
	Scanner  Scanner
	Logger   *zap.Logger
}

// Execute reads, extracts and scans the document
func (j *DocumentJob) Execute(ctx context.Context) Result {
	res := &DocumentResult{Index: j.Index, Path: j.Path}

	data, err := os.ReadFile(j.Path)
	if err != nil {
		res.Error = fmt.Errorf("read %s: %w", j.Path, err)
		return res
	}

	text, err := extract.ExtractDocument(filepath.Base(j.Path), data, j.MaxBytes, j.Logger)
	if err != nil {
		res.Error = fmt.Errorf("extract %s: %w", j.Path, err)
		return res
	}

	result, err := j.Scanner.Scan(ctx, text, j.Mode)
	if err != nil {
		res.Error = fmt.Errorf("scan %s: %w", j.Path, err)
		return res
	}
	res.Result = result
	return res
}

// DocumentResult represents the result of a document job
type DocumentResult struct {
	Index  int
	Path   string
	Result *model.ScanResult
	Error  error
}

// GetError returns the error from the scan result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor scans multiple documents concurrently
type BatchProcessor struct {
	scanner     Scanner
	concurrency int
	mode        string
	maxBytes    int64
	logger      *zap.Logger
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scanner Scanner, concurrency int, mode string, maxBytes int64, logger *zap.Logger) *BatchProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BatchProcessor{
		scanner:     scanner,
		concurrency: concurrency,
		mode:        mode,
		maxBytes:    maxBytes,
		logger:      logger,
	}
}

// ProcessPaths scans every path and returns results in input order.
// A failing document does not stop the others.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		submitted := pool.Submit(&DocumentJob{
			Index:    i,
			Path:     path,
			Mode:     b.mode,
			MaxBytes: b.maxBytes,
			Scanner:  b.scanner,
			Logger:   b.logger,
		})
		if !submitted {
			break
		}
	}

	results := pool.Wait()

	out := make([]*DocumentResult, 0, len(paths))
	done := make(map[int]bool, len(results))
	for _, r := range results {
		dr, ok := r.(*DocumentResult)
		if !ok {
			continue
		}
		done[dr.Index] = true
		out = append(out, dr)
	}
	// Documents never reached because ctx was cancelled.
	for i, path := range paths {
		if !done[i] {
			out = append(out, &DocumentResult{Index: i, Path: path, Error: fmt.Errorf("scan %s: %w", path, ctx.Err())})
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads document paths from a list file and scans them
func (b *BatchProcessor) ProcessFile(ctx context.Context, listPath string) ([]*DocumentResult, error) {
	paths, err := ReadPathsFromFile(listPath)
	if err != nil {
		return nil, fmt.Errorf("read paths: %w", err)
	}

	return b.ProcessPaths(ctx, paths), nil
}

// ReadPathsFromFile reads document paths (one per line). Relative paths are
// resolved against the list file's directory.
func ReadPathsFromFile(listPath string) ([]string, error) {
	file, err := os.Open(listPath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(listPath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}
		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}
