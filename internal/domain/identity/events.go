package identity

import (
	"github.com/shop/backend/internal/domain/shared"
)

// Aggregate type constant for User
const AggregateTypeUser = "User"

// User domain event types
const (
	EventTypeUserRegistered         = "identity.user_registered"
	EventTypeUserActivated          = "identity.user_activated"
	EventTypePasswordResetRequested = "identity.password_reset_requested"
)

// UserRegisteredEvent is published after an account and its confirmation token are stored
type UserRegisteredEvent struct {
	shared.BaseDomainEvent
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	TokenKey string `json:"token_key"`
}

// NewUserRegisteredEvent creates a new UserRegisteredEvent
func NewUserRegisteredEvent(user *User, token *ConfirmEmailToken) *UserRegisteredEvent {
	return &UserRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserRegistered, AggregateTypeUser, user.ID),
		UserID:          user.ID,
		Email:           user.Email,
		TokenKey:        token.Key,
	}
}

// UserActivatedEvent is published when an email is confirmed
type UserActivatedEvent struct {
	shared.BaseDomainEvent
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
}

// NewUserActivatedEvent creates a new UserActivatedEvent
func NewUserActivatedEvent(user *User) *UserActivatedEvent {
	return &UserActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeUserActivated, AggregateTypeUser, user.ID),
		UserID:          user.ID,
		Email:           user.Email,
	}
}

// PasswordResetRequestedEvent is published when a reset token is issued
type PasswordResetRequestedEvent struct {
	shared.BaseDomainEvent
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	TokenKey string `json:"token_key"`
}

// NewPasswordResetRequestedEvent creates a new PasswordResetRequestedEvent
func NewPasswordResetRequestedEvent(user *User, token *PasswordResetToken) *PasswordResetRequestedEvent {
	return &PasswordResetRequestedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePasswordResetRequested, AggregateTypeUser, user.ID),
		UserID:          user.ID,
		Email:           user.Email,
		TokenKey:        token.Key,
	}
}
