// Command datagen writes synthetic per-video measure datasets for local
// development, as CSV files and optionally into ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/logging"
	"github.com/sanspareilsmyn/momentlens/internal/series"
	"github.com/sanspareilsmyn/momentlens/internal/series/clickhouse"
)

var (
	outDir   = flag.String("out", "data", "Directory for generated CSV files")
	videos   = flag.Int("videos", 10, "Number of videos to generate")
	duration = flag.Float64("duration", 60, "Length of each video in seconds")
	rate     = flag.Float64("rate", 10, "Samples per second")
	seed     = flag.Int64("seed", 1, "Random seed")
	dsn      = flag.String("clickhouse", "", "Also insert datasets into this ClickHouse DSN")
)

func main() {
	flag.Parse()

	logger, err := logging.NewLogger(config.LogConfig{Level: "info", Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger); err != nil {
		logger.Error("Dataset generation failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *zap.Logger) error {
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		return err
	}

	var store *clickhouse.Store
	if *dsn != "" {
		conn, err := clickhouse.NewConn(ctx, *dsn)
		if err != nil {
			return err
		}
		defer conn.Close()
		if err := clickhouse.Migrate(ctx, conn); err != nil {
			return err
		}
		store = clickhouse.NewStore(conn)
	}

	rng := rand.New(rand.NewSource(*seed))
	gen := generator{rng: rng, duration: *duration, rate: *rate}

	for i := 0; i < *videos; i++ {
		if err := ctx.Err(); err != nil {
			logger.Info("Generation cancelled", zap.Int("written", i))
			return nil
		}

		ts, err := gen.video(fmt.Sprintf("video-%03d", i+1), fmt.Sprintf("Ad %d", i+1))
		if err != nil {
			return err
		}

		path := filepath.Join(*outDir, ts.VideoID+".csv")
		if err := writeCSV(path, ts); err != nil {
			return err
		}
		if store != nil {
			if err := store.Insert(ctx, ts); err != nil {
				return fmt.Errorf("insert %s: %w", ts.VideoID, err)
			}
		}

		logger.Info("Generated dataset",
			zap.String("video_id", ts.VideoID),
			zap.String("path", path),
			zap.Int("samples", ts.Len()),
			zap.Bool("clickhouse", store != nil),
		)
	}
	return nil
}

func writeCSV(path string, ts *series.TimeSeries) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := series.WriteCSV(f, ts); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
