// Command momentlens serves moment search and aggregation over HTTP and runs
// one-shot aggregations from the command line.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/logging"
)

var configFile string

func main() {
	rootCmd := &cobra.Command{
		Use:   "momentlens",
		Short: "MomentLens - aggregate neuro measures over video moments",
		Long: `MomentLens searches videos for moments and aggregates per-video measure
time series over the selected moments.

Commands:
  serve      HTTP API for search, segment metrics and aggregation
  aggregate  One-shot aggregation of a moments file
  watch      Follow aggregation events from Kafka`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Path to the configuration file (defaults plus MOMENTLENS_* env when empty)")

	rootCmd.AddCommand(newServeCommand())
	rootCmd.AddCommand(newAggregateCommand())
	rootCmd.AddCommand(newWatchCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration and builds the logger. The caller must Sync
// the logger.
func bootstrap() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration from %q: %w", configFile, err)
	}

	logger, err := logging.NewLogger(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Sugar().Infow("Configuration loaded successfully",
		"path", configFile,
		"level", cfg.Log.Level,
		"format", cfg.Log.Format,
	)
	return cfg, logger, nil
}
