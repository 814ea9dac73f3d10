package identity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shop/backend/internal/domain/shared"
)

// ConfirmEmailToken proves ownership of an email address
type ConfirmEmailToken struct {
	shared.BaseEntity
	UserID int64
	Key    string
}

// NewConfirmEmailToken creates a token with a fresh random key
func NewConfirmEmailToken(userID int64) *ConfirmEmailToken {
	return &ConfirmEmailToken{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Key:        NewTokenKey(),
	}
}

// PasswordResetToken authorizes a password change without the old password
type PasswordResetToken struct {
	shared.BaseEntity
	UserID int64
	Key    string
}

// NewPasswordResetToken creates a token with a fresh random key
func NewPasswordResetToken(userID int64) *PasswordResetToken {
	return &PasswordResetToken{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		Key:        NewTokenKey(),
	}
}

// IsExpired reports whether the token is older than ttl at now
func (t *PasswordResetToken) IsExpired(ttl time.Duration, now time.Time) bool {
	return now.Sub(t.CreatedAt) > ttl
}

// NewTokenKey returns 64 random hex characters
func NewTokenKey() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}
