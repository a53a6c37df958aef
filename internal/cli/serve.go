package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ppiankov/clausewise/internal/model"
	"github.com/ppiankov/clausewise/internal/server"
)

var serveAddr string

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the analysis HTTP API",
	Long: `Serve exposes the analyzer over HTTP:
  POST /v1/analyze   analyze {"text": ...} or {"url": ...}
  GET  /v1/taxonomy  the loaded risk categories
  GET  /healthz      liveness
  GET  /metrics      Prometheus metrics

Example:
  clausewise serve --addr :8080
  CLAUSEWISE_CACHE_BACKEND=redis CLAUSEWISE_CACHE_REDIS_ADDR=localhost:6379 clausewise serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := setup(func(cfg *model.Config) {
		if serveAddr != "" {
			cfg.Server.Addr = serveAddr
		}
	})
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Request bodies carry the document as a JSON string; allow for escaping
	maxBody := int64(a.cfg.Input.MaxDocumentBytes) * 2
	srv := server.New(a.service, a.tax, a.cfg.Server, maxBody, Version, a.logger)

	a.logger.Info("starting server",
		zap.String("addr", a.cfg.Server.Addr),
		zap.String("version", Version),
		zap.String("cache", a.cfg.Cache.Backend),
		zap.Bool("cache_enabled", a.cfg.Cache.Enabled),
		zap.String("llm", a.cfg.LLM.Provider))

	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	a.logger.Info("server stopped")
	return nil
}
