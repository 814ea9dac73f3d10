package auth

import (
	"context"
	"sync"
	"time"
)

// InMemoryTokenBlacklist serves a single instance running without Redis.
// Expired entries are dropped when they are next looked up.
type InMemoryTokenBlacklist struct {
	mu      sync.Mutex
	jtis    map[string]time.Time // jti -> expiry
	cutoffs map[int64]userCutoff
}

type userCutoff struct {
	at      time.Time
	expires time.Time // zero keeps the cutoff forever
}

func NewInMemoryTokenBlacklist() *InMemoryTokenBlacklist {
	return &InMemoryTokenBlacklist{
		jtis:    make(map[string]time.Time),
		cutoffs: make(map[int64]userCutoff),
	}
}

func (b *InMemoryTokenBlacklist) AddToBlacklist(_ context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	b.mu.Lock()
	b.jtis[jti] = time.Now().Add(ttl)
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsBlacklisted(_ context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	expiry, ok := b.jtis[jti]
	if ok && time.Now().After(expiry) {
		delete(b.jtis, jti)
		ok = false
	}
	return ok, nil
}

func (b *InMemoryTokenBlacklist) InvalidateUserTokens(_ context.Context, userID int64, ttl time.Duration) error {
	now := time.Now()
	c := userCutoff{at: now}
	if ttl > 0 {
		c.expires = now.Add(ttl)
	}
	b.mu.Lock()
	b.cutoffs[userID] = c
	b.mu.Unlock()
	return nil
}

func (b *InMemoryTokenBlacklist) IsUserTokenInvalidated(_ context.Context, userID int64, issuedAt time.Time) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	c, ok := b.cutoffs[userID]
	if !ok {
		return false, nil
	}
	if !c.expires.IsZero() && time.Now().After(c.expires) {
		delete(b.cutoffs, userID)
		return false, nil
	}
	return !issuedAt.After(c.at), nil
}

var _ TokenBlacklist = (*InMemoryTokenBlacklist)(nil)
