package main

import (
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pdiddy/deep-research/internal/httpapi"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the research web service",
	Long: `Serve starts the HTTP server: a static frontend at /, a health endpoint at
/api/health, and a WebSocket at /ws/research that streams progress events
while a research run is in flight. Finished reports are written to the
reports directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := loadConfig()

		logger := newLogger()
		defer logger.Sync()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		researcher, err := buildAgent(ctx, cfg, logger)
		if err != nil {
			return err
		}

		srv := httpapi.NewServer(researcher, cfg.Server, logger)
		if err := srv.ListenAndServe(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
