package search

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Provider runs a text query and returns every hit across all result pages.
type Provider interface {
	Search(ctx context.Context, query string) (clips []Clip, totalHits int, err error)
}

// Searcher serves snapshots from a Cache and fills misses from a Provider.
// Concurrent misses for the same key share one provider call.
type Searcher struct {
	provider Provider
	cache    Cache
	logger   *zap.Logger
	group    singleflight.Group
	now      func() time.Time
}

// NewSearcher creates a Searcher.
func NewSearcher(provider Provider, cache Cache, logger *zap.Logger) *Searcher {
	return &Searcher{
		provider: provider,
		cache:    cache,
		logger:   logger.Named("searcher"),
		now:      time.Now,
	}
}

// Search returns the snapshot for query, running the provider only when no
// snapshot is cached for the normalized query.
func (s *Searcher) Search(ctx context.Context, query string) (*Snapshot, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	key := Key(query)

	snap, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Snapshot cache read failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		s.logger.Debug("Snapshot cache hit", zap.String("key", key), zap.Int("clips", len(snap.Clips)))
		return snap, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		clips, total, err := s.provider.Search(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
		}
		snap := NewSnapshot(query, clips, total, s.now())
		if err := s.cache.Put(ctx, snap); err != nil {
			s.logger.Warn("Snapshot cache write failed", zap.String("key", key), zap.Error(err))
		}
		s.logger.Info("Search completed",
			zap.String("query", query),
			zap.String("key", key),
			zap.Int("clips", len(snap.Clips)),
			zap.Int("total_hits", total),
		)
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Refresh drops any cached snapshot for query and searches again.
func (s *Searcher) Refresh(ctx context.Context, query string) (*Snapshot, error) {
	if err := s.cache.Invalidate(ctx, Key(query)); err != nil {
		return nil, fmt.Errorf("invalidate snapshot: %w", err)
	}
	return s.Search(ctx, query)
}
