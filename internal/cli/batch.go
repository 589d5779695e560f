package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/ppiankov/plagscan/internal/worker"
	"github.com/spf13/cobra"
)

var (
	concurrency  int
	outputDir    string
	batchMode    string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Check many documents listed in a file",
	Long: `Batch scans every document listed in the input file, one path per
line. Blank lines and lines starting with # are ignored; relative paths are
resolved against the list file's directory.

One JSON report is written per document.

Example:
  plagscan batch essays.txt
  plagscan batch essays.txt --concurrency 4 --output-dir ./reports --mode deep`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "documents scanned in parallel (default from config)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./plagscan-reports", "output directory for reports")
	batchCmd.Flags().StringVar(&batchMode, "mode", "", "scan mode: quick or deep (default from config)")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", time.Hour, "total timeout for the batch")
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, batchTimeout)
	defer cancel()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	workers := concurrency
	if workers <= 0 {
		workers = a.cfg.Concurrency.BatchWorkers
	}
	mode := batchMode
	if mode == "" {
		mode = a.cfg.Scan.DefaultMode
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	fmt.Fprintf(os.Stderr, "Input file:  %s\n", file)
	fmt.Fprintf(os.Stderr, "Workers:     %d\n", workers)
	fmt.Fprintf(os.Stderr, "Mode:        %s\n", mode)
	fmt.Fprintf(os.Stderr, "Output dir:  %s\n\n", outputDir)

	processor := worker.NewBatchProcessor(a.pipeline, workers, mode, a.cfg.Server.MaxUploadBytes, a.logger)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := a.pipeline.Renderer()
	failures := 0
	for _, result := range results {
		if result.Error != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Path, result.Error)
			continue
		}

		jsonPath := filepath.Join(outputDir, reportName(result.Index, result.Path))
		if err := renderer.RenderJSON(result.Result, jsonPath); err != nil {
			failures++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Path, err)
			continue
		}
		fmt.Fprintf(os.Stderr, "✓ %s (%.2f%%)\n", result.Path, result.Result.PlagiarismPercent)
	}

	fmt.Fprintf(os.Stderr, "\nTotal: %d, succeeded: %d, failed: %d\n", len(results), len(results)-failures, failures)
	if failures == len(results) && failures > 0 {
		return fmt.Errorf("all %d documents failed", failures)
	}
	return nil
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// reportName derives a report file name from the document path. The index
// prefix keeps names unique when two documents share a base name.
func reportName(index int, path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = filenameReplacer.Replace(stem)
	if len(stem) > 100 {
		stem = stem[:100]
	}
	if stem == "" || stem == "." {
		stem = "document"
	}
	return fmt.Sprintf("%03d-%s.json", index+1, stem)
}
