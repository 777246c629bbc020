package series

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// CachedStore memoizes successful loads of an underlying Store. Concurrent
// loads of the same id share one call. Failures are not cached.
type CachedStore struct {
	next  Store
	group singleflight.Group
	cache sync.Map // video id -> *TimeSeries
}

var _ Store = (*CachedStore)(nil)

// NewCachedStore wraps next.
func NewCachedStore(next Store) *CachedStore {
	return &CachedStore{next: next}
}

// Load implements Store. The shared load is detached from the cancellation of
// whichever caller started it; each caller stops waiting when its own ctx ends.
func (c *CachedStore) Load(ctx context.Context, videoID string) (*TimeSeries, error) {
	if v, ok := c.cache.Load(videoID); ok {
		return v.(*TimeSeries), nil
	}

	ch := c.group.DoChan(videoID, func() (interface{}, error) {
		if v, ok := c.cache.Load(videoID); ok {
			return v, nil
		}
		ts, err := c.next.Load(context.WithoutCancel(ctx), videoID)
		if err != nil {
			return nil, err
		}
		c.cache.Store(videoID, ts)
		return ts, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*TimeSeries), nil
	}
}

// Forget drops a cached dataset so the next Load reads it again.
func (c *CachedStore) Forget(videoID string) {
	c.cache.Delete(videoID)
}
