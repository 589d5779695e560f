package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/ppiankov/plagscan/internal/extract"
	"github.com/spf13/cobra"
)

var (
	checkText string
	checkMode string
	checkJSON string
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check [file]",
	Short: "Check one document or text for plagiarism",
	Long: `Check scans a PDF, DOCX or TXT file, or text given with --text.

The human-readable summary goes to stdout. With --json the full result is
also written to a file, or to stdout when the path is "-".

Example:
  plagscan check essay.docx
  plagscan check --text "Some paragraph to check" --mode deep
  plagscan check thesis.pdf --json report.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkText, "text", "", "text to check instead of a file")
	checkCmd.Flags().StringVar(&checkMode, "mode", "", "scan mode: quick or deep (default from config)")
	checkCmd.Flags().StringVar(&checkJSON, "json", "", `write the JSON result to this path ("-" for stdout)`)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && checkText == "" {
		return errors.New("provide a file or --text")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	text := checkText
	if len(args) == 1 {
		path := args[0]
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		text, err = extract.ExtractDocument(filepath.Base(path), data, a.cfg.Server.MaxUploadBytes, a.logger)
		if err != nil {
			return fmt.Errorf("extract %s: %w", path, err)
		}
	}

	mode := checkMode
	if mode == "" {
		mode = a.cfg.Scan.DefaultMode
	}

	result, err := a.pipeline.Scan(ctx, text, mode)
	if err != nil {
		return err
	}

	renderer := a.pipeline.Renderer()
	switch checkJSON {
	case "":
	case "-":
		return renderer.WriteJSON(os.Stdout, result)
	default:
		if err := renderer.RenderJSON(result, checkJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "✓ JSON report: %s\n", checkJSON)
	}

	renderer.RenderSummary(os.Stdout, result)
	return nil
}
