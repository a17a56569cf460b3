package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"driftwatch/internal/app"
	"driftwatch/internal/config"
	"driftwatch/internal/logging"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the scheduled drift sweeps",
	Long: `Starts the weather/drift HTTP API and registers the cron-driven drift
sweep. Configuration comes from defaults, the YAML file named by
DRIFTWATCH_CONFIG, and environment overrides, in that order.`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	logger := logging.New(cfg.Logging.Level, os.Stdout)

	application := app.New(cfg, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return application.Run(ctx)
}
