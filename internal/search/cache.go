package search

import (
	"container/list"
	"context"
	"sync"
)

// Cache stores snapshots by key. Entries never expire on their own.
type Cache interface {
	// Get returns (nil, false, nil) when key is absent.
	Get(ctx context.Context, key string) (*Snapshot, bool, error)
	Put(ctx context.Context, snap *Snapshot) error
	Invalidate(ctx context.Context, key string) error
}

// MemoryCache keeps up to capacity snapshots, evicting the least recently
// stored one when a new distinct query arrives at capacity.
type MemoryCache struct {
	capacity int

	mu      sync.Mutex
	order   *list.List // front = newest
	entries map[string]*list.Element
}

var _ Cache = (*MemoryCache)(nil)

// NewMemoryCache creates a MemoryCache. capacity <= 0 means unbounded.
func NewMemoryCache(capacity int) *MemoryCache {
	return &MemoryCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get implements Cache.
func (c *MemoryCache) Get(_ context.Context, key string) (*Snapshot, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	return el.Value.(*Snapshot), true, nil
}

// Put implements Cache. Storing an existing key keeps the first snapshot.
func (c *MemoryCache) Put(_ context.Context, snap *Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[snap.Key]; ok {
		return nil
	}
	for c.capacity > 0 && c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*Snapshot).Key)
	}
	c.entries[snap.Key] = c.order.PushFront(snap)
	return nil
}

// Invalidate implements Cache.
func (c *MemoryCache) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.entries[key]; ok {
		c.order.Remove(el)
		delete(c.entries, key)
	}
	return nil
}

// Len returns the number of cached snapshots.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
