package shared

import (
	"context"
	"time"
)

// IdempotencyStore records which event deliveries have been claimed.
type IdempotencyStore interface {
	// Claim reserves key for ttl. It reports false when the key is already held.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops a claim so a later delivery may run again.
	Release(ctx context.Context, key string) error

	Close() error
}
