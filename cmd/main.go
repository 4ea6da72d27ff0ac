package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"soilmon/internal/config"
	"soilmon/internal/logging"
)

const appName = "soilmon"

// Default version is "dev" if not set with -ldflags "-X main.version=...".
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Soil sensor ingestion and query service",
	Long: `soilmon subscribes to soil sensor readings over MQTT, stores them in a
time-series store and serves range queries and CSV exports over HTTP.

Running without a subcommand is the same as "soilmon serve".`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServe,
}

func main() {
	// A missing .env is fine; real environment variables always win.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads config and installs the process logger.
func setup() (config.Config, *slog.Logger, error) {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("config error: %w", err)
	}
	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)
	return cfg, logger, nil
}
