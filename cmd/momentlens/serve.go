package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/sanspareilsmyn/momentlens/internal/pipeline"
	"github.com/sanspareilsmyn/momentlens/internal/server"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(parent context.Context) error {
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer func() {
		_ = logger.Sync()
	}()
	sugar := logger.Sugar()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var closers []closer
	defer func() { closeAll(closers) }()

	store, done, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		return fmt.Errorf("open dataset store: %w", err)
	}
	closers = append(closers, done)

	searcher, done, err := newSearcher(ctx, cfg.Search, logger)
	if err != nil {
		return err
	}
	closers = append(closers, done)

	publisher, err := newPublisher(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("create event publisher: %w", err)
	}
	closers = append(closers, func() { _ = publisher.Close() })

	recorder := pipeline.NewRecorder(cfg.Metrics.Namespace, prometheus.DefaultRegisterer, logger)
	pipe, err := pipeline.New(cfg.Aggregation, store, recorder, publisher, logger)
	if err != nil {
		return err
	}

	srv := server.New(cfg.Server, server.Deps{
		Pipeline: pipe,
		Searcher: searcher,
		Preview:  cfg.Search.Preview,
		Gatherer: prometheus.DefaultGatherer,
	}, logger)

	sugar.Info("Starting MomentLens...")
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return pipe.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })
	runErr := g.Wait()

	finalLogLevel := zapcore.InfoLevel
	shutdownReason := "gracefully"
	finalErrorField := zap.Skip()

	switch {
	case runErr == nil, errors.Is(runErr, context.Canceled):
		sugar.Info("Shutdown signal handled.")
	default:
		shutdownReason = "due to error"
		finalLogLevel = zapcore.ErrorLevel
		finalErrorField = zap.Error(runErr)
	}

	logger.Log(finalLogLevel, fmt.Sprintf("MomentLens shutdown %s.", shutdownReason),
		zap.String("reason", shutdownReason),
		finalErrorField,
	)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}
