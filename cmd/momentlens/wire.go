package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/sanspareilsmyn/momentlens/internal/config"
	"github.com/sanspareilsmyn/momentlens/internal/events"
	"github.com/sanspareilsmyn/momentlens/internal/search"
	"github.com/sanspareilsmyn/momentlens/internal/search/postgres"
	"github.com/sanspareilsmyn/momentlens/internal/series"
	"github.com/sanspareilsmyn/momentlens/internal/series/clickhouse"
)

// closer releases a resource opened during wiring.
type closer func()

func closeAll(cs []closer) {
	for i := len(cs) - 1; i >= 0; i-- {
		cs[i]()
	}
}

// openStore builds the dataset store selected by cfg.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (series.Store, closer, error) {
	var (
		store series.Store
		done  = func() {}
	)

	switch cfg.Backend {
	case config.StoreBackendClickHouse:
		conn, err := clickhouse.NewConn(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		if err := clickhouse.Migrate(ctx, conn); err != nil {
			_ = conn.Close()
			return nil, nil, err
		}
		store = clickhouse.NewStore(conn)
		done = func() {
			if err := conn.Close(); err != nil {
				logger.Warn("Failed to close ClickHouse connection", zap.Error(err))
			}
		}
		logger.Info("Using ClickHouse dataset store")
	default:
		store = series.NewFileStore(cfg.Dir, logger)
		logger.Info("Using CSV dataset store", zap.String("dir", cfg.Dir))
	}

	if cfg.Cache {
		store = series.NewCachedStore(store)
	}
	return store, done, nil
}

// openSearchCache builds the snapshot cache selected by cfg.
func openSearchCache(ctx context.Context, cfg config.SearchCacheConfig, logger *zap.Logger) (search.Cache, closer, error) {
	if cfg.Backend != config.CacheBackendPostgres {
		return search.NewMemoryCache(cfg.Capacity), func() {}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Info("Using Postgres search snapshot cache")
	return postgres.NewCache(pool), pool.Close, nil
}

// newSearcher returns nil when no search provider is configured.
func newSearcher(ctx context.Context, cfg config.SearchConfig, logger *zap.Logger) (*search.Searcher, closer, error) {
	client, err := search.NewClient(cfg, logger)
	if errors.Is(err, search.ErrNotConfigured) {
		logger.Warn("Search provider not configured, /search is disabled")
		return nil, func() {}, nil
	}
	if err != nil {
		return nil, nil, err
	}

	cache, done, err := openSearchCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open search cache: %w", err)
	}
	return search.NewSearcher(client, cache, logger), done, nil
}

// newPublisher returns a Kafka publisher when events are enabled.
func newPublisher(cfg config.EventsConfig, logger *zap.Logger) (events.Publisher, error) {
	if !cfg.Enabled {
		return events.NopPublisher{}, nil
	}
	return events.NewKafkaPublisher(cfg, logger.Named("events"))
}
