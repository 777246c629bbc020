// Package postgres persists search snapshots in PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sanspareilsmyn/momentlens/internal/search"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool wraps pgxpool.Pool for dependency injection.
type Pool struct {
	*pgxpool.Pool
}

// NewPool creates and pings a connection pool.
func NewPool(ctx context.Context, dsn string) (*Pool, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// Migrate applies the embedded schema in file order.
func Migrate(ctx context.Context, pool *Pool) error {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("read embedded migrations: %w", err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)

	for _, file := range files {
		data, err := fs.ReadFile(migrationsFS, "migrations/"+file)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", file, err)
		}
		if _, err := pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("apply migration %s: %w", file, err)
		}
	}
	return nil
}

// Cache implements search.Cache on the search_snapshots table.
type Cache struct {
	pool *Pool
}

// Compile-time interface check.
var _ search.Cache = (*Cache)(nil)

// NewCache creates a Cache.
func NewCache(pool *Pool) *Cache {
	return &Cache{pool: pool}
}

// Get implements search.Cache.
func (c *Cache) Get(ctx context.Context, key string) (*search.Snapshot, bool, error) {
	var (
		snap  search.Snapshot
		clips []byte
	)
	err := c.pool.QueryRow(ctx, `
		SELECT key, query, total_hits, clips, created_at
		FROM search_snapshots
		WHERE key = $1
	`, key).Scan(&snap.Key, &snap.Query, &snap.TotalHits, &clips, &snap.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("query snapshot: %w", err)
	}

	if err := json.Unmarshal(clips, &snap.Clips); err != nil {
		return nil, false, fmt.Errorf("decode snapshot clips: %w", err)
	}
	snap.CreatedAt = snap.CreatedAt.UTC()
	return &snap, true, nil
}

// Put implements search.Cache. An existing snapshot for the key is kept.
func (c *Cache) Put(ctx context.Context, snap *search.Snapshot) error {
	clips := snap.Clips
	if clips == nil {
		clips = []search.Clip{}
	}
	data, err := json.Marshal(clips)
	if err != nil {
		return fmt.Errorf("encode snapshot clips: %w", err)
	}

	_, err = c.pool.Exec(ctx, `
		INSERT INTO search_snapshots (key, query, total_hits, clips, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (key) DO NOTHING
	`, snap.Key, snap.Query, snap.TotalHits, data, snap.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Invalidate implements search.Cache.
func (c *Cache) Invalidate(ctx context.Context, key string) error {
	if _, err := c.pool.Exec(ctx, `DELETE FROM search_snapshots WHERE key = $1`, key); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}
