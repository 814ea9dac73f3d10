package cache

import (
	"context"
	"sync/atomic"
	"time"
)

// InMemoryStore implements Store in process memory
type InMemoryStore struct {
	entries *ttlMap[[]byte]

	hits   atomic.Int64
	misses atomic.Int64
}

// NewInMemoryStore creates an in-memory cache store. Call Close to stop its
// cleanup goroutine.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entries: newTTLMap[[]byte](time.Minute)}
}

// Get returns a copy of the cached value
func (s *InMemoryStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := s.entries.get(key)
	if !ok {
		s.misses.Add(1)
		return nil, false, nil
	}
	s.hits.Add(1)
	return append([]byte(nil), value...), true, nil
}

// Set stores a copy of value
func (s *InMemoryStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	s.entries.set(key, append([]byte(nil), value...), ttl)
	return nil
}

// DeletePrefix removes every key starting with prefix
func (s *InMemoryStore) DeletePrefix(ctx context.Context, prefix string) error {
	s.entries.deletePrefix(prefix)
	return nil
}

// Close stops the cleanup goroutine
func (s *InMemoryStore) Close() error {
	s.entries.close()
	return nil
}

// Stats returns hit and miss counters
func (s *InMemoryStore) Stats() (hits, misses int64) {
	return s.hits.Load(), s.misses.Load()
}

var _ Store = (*InMemoryStore)(nil)
