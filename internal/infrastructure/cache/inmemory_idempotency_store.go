package cache

import (
	"context"
	"time"

	"github.com/shop/backend/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps delivery claims in process memory.
// Claims are not shared between server instances.
type InMemoryIdempotencyStore struct {
	claims *ttlMap[struct{}]
}

// NewInMemoryIdempotencyStore starts a store with a background sweeper; Close stops it.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{claims: newTTLMap[struct{}](defaultCleanupInterval)}
}

func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.claims.setIfAbsent(key, struct{}{}, ttl), nil
}

func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.claims.delete(key)
	return nil
}

func (s *InMemoryIdempotencyStore) Close() error {
	s.claims.close()
	return nil
}

// Len counts held claims, expired ones included until the next sweep.
func (s *InMemoryIdempotencyStore) Len() int {
	return s.claims.size()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
