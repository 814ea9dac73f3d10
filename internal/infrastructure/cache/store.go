package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Store is a byte-oriented key value cache with per-entry TTL
type Store interface {
	// Get returns the cached value and whether it was found
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix removes every key starting with prefix
	DeletePrefix(ctx context.Context, prefix string) error
	Close() error
}

// GetJSON reads and decodes a cached value. A miss returns found=false.
func GetJSON[T any](ctx context.Context, s Store, key string) (value T, found bool, err error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return value, false, err
	}
	if err := json.Unmarshal(raw, &value); err != nil {
		return value, false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return value, true, nil
}

// SetJSON encodes and stores a value
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s for cache: %w", key, err)
	}
	return s.Set(ctx, key, raw, ttl)
}
