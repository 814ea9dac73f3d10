package auth

import (
	"context"
	"time"
)

// TokenBlacklist revokes tokens before they expire. Single tokens are
// revoked by jti on logout; every token of a user is revoked by recording
// a cutoff on password change or reset.
type TokenBlacklist interface {
	// AddToBlacklist revokes one jti for ttl, normally the token's
	// remaining lifetime. A non-positive ttl is a no-op.
	AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// InvalidateUserTokens rejects tokens of userID issued up to now. The
	// cutoff is kept for ttl, which should cover the refresh lifetime.
	InvalidateUserTokens(ctx context.Context, userID int64, ttl time.Duration) error
	IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error)
}

const blacklistPrefix = "shop:token:blacklist:"
