package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ppiankov/plagscan/internal/server"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve exposes the checker over HTTP:
  POST /check    multipart or form body with text, file and scan_mode
  GET  /health   liveness
  GET  /metrics  prometheus metrics

Example:
  plagscan serve
  plagscan serve --addr 127.0.0.1:8080`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config, :9001)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	addr := serveAddr
	if addr == "" {
		addr = a.cfg.Server.Addr
	}

	a.logger.Info("embedding backend ready", zap.String("embedder", a.pipeline.EmbedderName()))
	handler := server.NewHandler(a.pipeline, a.cfg.Server, a.logger)
	return server.Run(ctx, server.New(addr, handler.Routes(), a.cfg.Server), a.logger)
}
