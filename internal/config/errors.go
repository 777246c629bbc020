package config

import "errors"

var (
	ErrReadingConfigFile    = errors.New("failed to read config file")
	ErrUnmarshallingConfig  = errors.New("failed to unmarshal config")
	ErrConfigFileMissing    = errors.New("config file not found")
	ErrEmptyServerAddr      = errors.New("server addr cannot be empty")
	ErrUnknownStoreBackend  = errors.New("unknown store backend")
	ErrEmptyStoreDir        = errors.New("store dir cannot be empty for the file backend")
	ErrEmptyStoreDSN        = errors.New("store dsn cannot be empty for the clickhouse backend")
	ErrUnknownCacheBackend  = errors.New("unknown search cache backend")
	ErrInvalidCacheCapacity = errors.New("search cache capacity must be positive")
	ErrEmptyCacheDSN        = errors.New("search cache dsn cannot be empty for the postgres backend")
	ErrInvalidPageLimit     = errors.New("search pageLimit must be positive")
	ErrInvalidPolicy        = errors.New("aggregation policy must be clamp or nan")
	ErrInvalidMode          = errors.New("aggregation defaultMode must be box or line")
	ErrInvalidConcurrency   = errors.New("aggregation concurrency must be positive")
	ErrEmptyKafkaBrokers    = errors.New("events brokers list cannot be empty when events are enabled")
	ErrEmptyKafkaTopic      = errors.New("events topic cannot be empty when events are enabled")
)
