package identity

import (
	"context"
)

// UserRepository defines the interface for user persistence
type UserRepository interface {
	// FindByID finds a user by its ID
	FindByID(ctx context.Context, id int64) (*User, error)

	// FindByEmail finds a user by normalized email
	FindByEmail(ctx context.Context, email string) (*User, error)

	// ExistsByEmail checks if an email is taken
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// Save creates or updates a user
	Save(ctx context.Context, user *User) error
}

// ContactRepository defines the interface for contact persistence.
// All methods are scoped to the owning user.
type ContactRepository interface {
	FindByUser(ctx context.Context, userID int64) ([]Contact, error)
	FindByIDForUser(ctx context.Context, userID, id int64) (*Contact, error)
	Save(ctx context.Context, contact *Contact) error
	// DeleteByIDs removes the user's contacts and returns the affected row count
	DeleteByIDs(ctx context.Context, userID int64, ids []int64) (int64, error)
}

// ConfirmEmailTokenRepository defines the interface for email confirmation tokens
type ConfirmEmailTokenRepository interface {
	FindByUserID(ctx context.Context, userID int64) (*ConfirmEmailToken, error)
	FindByKey(ctx context.Context, key string) (*ConfirmEmailToken, error)
	Create(ctx context.Context, token *ConfirmEmailToken) error
	Delete(ctx context.Context, id int64) error
}

// PasswordResetTokenRepository defines the interface for password reset tokens
type PasswordResetTokenRepository interface {
	FindByKey(ctx context.Context, key string) (*PasswordResetToken, error)
	Create(ctx context.Context, token *PasswordResetToken) error
	// DeleteByUser removes every reset token of the user
	DeleteByUser(ctx context.Context, userID int64) error
}
