package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/sanspareilsmyn/momentlens/internal/search"
)

// setupTestDB starts a Postgres container with the schema applied.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, "postgres:15-alpine",
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")
	require.NoError(t, Migrate(ctx, pool))

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}
	return pool, cleanup
}

func TestCache_PutGetInvalidate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	cache := NewCache(pool)

	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := search.NewSnapshot("Cats", []search.Clip{
		{VideoID: "v1", Start: 1, End: 2, Score: 90, ThumbnailURL: "t"},
		{VideoID: "v2", Start: 3, End: 4, Score: 70},
	}, 12, created)

	_, ok, err := cache.Get(ctx, snap.Key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, cache.Put(ctx, snap))
	got, ok, err := cache.Get(ctx, search.Key("  cats "))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, snap, got)

	// Snapshots are immutable once stored.
	require.NoError(t, cache.Put(ctx, search.NewSnapshot("cats", nil, 0, created.Add(time.Hour))))
	got, _, err = cache.Get(ctx, snap.Key)
	require.NoError(t, err)
	assert.Len(t, got.Clips, 2)

	require.NoError(t, cache.Invalidate(ctx, snap.Key))
	_, ok, err = cache.Get(ctx, snap.Key)
	require.NoError(t, err)
	assert.False(t, ok)
}
