package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sundayezeilo/shortlink/internal/app"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Long: `Run the HTTP server until SIGINT or SIGTERM.

Routes:
  POST  /create    create a link, generating an id when none is given
  GET   /{id}      307 redirect to the stored target URL
  PATCH /{id}      point an existing id at a new target URL
  GET   /health    liveness probe
  GET   /metrics   Prometheus metrics (METRICS_ENABLED)

Examples:
  shortlink serve
  shortlink serve --store=memory
  STORE_DRIVER=sqlite SQLITE_PATH=/var/lib/shortlink.db shortlink serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := applyFlagOverrides(); err != nil {
		return err
	}

	cfg, logger, err := app.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Observability.ServiceVersion == "dev" && version != "dev" {
		cfg.Observability.ServiceVersion = version
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Shutdown(); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	// Blocks until a signal arrives.
	return application.Start(ctx)
}

// commandContext returns the command's context, or Background when cobra was
// executed without one.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
