package series

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps datasets in process memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*TimeSeries
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a store pre-filled with datasets.
func NewMemoryStore(datasets ...*TimeSeries) *MemoryStore {
	s := &MemoryStore{data: make(map[string]*TimeSeries, len(datasets))}
	for _, ts := range datasets {
		s.data[ts.VideoID] = ts
	}
	return s
}

// Put adds or replaces a dataset.
func (s *MemoryStore) Put(ts *TimeSeries) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[ts.VideoID] = ts
}

// Load implements Store.
func (s *MemoryStore) Load(_ context.Context, videoID string) (*TimeSeries, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ts, ok := s.data[videoID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, videoID)
	}
	return ts, nil
}
