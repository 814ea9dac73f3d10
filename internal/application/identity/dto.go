package identity

import (
	"time"

	"github.com/shop/backend/internal/application/common"
	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/infrastructure/auth"
)

// ==================== Account requests ====================

// RegisterRequest represents a request to create an account
type RegisterRequest struct {
	FirstName string `json:"first_name" binding:"required,max=150"`
	LastName  string `json:"last_name" binding:"required,max=150"`
	Email     string `json:"email" binding:"required,email,max=254"`
	Password  string `json:"password" binding:"required"`
	Company   string `json:"company" binding:"required,max=40"`
	Position  string `json:"position" binding:"required,max=40"`
	Type      string `json:"type" binding:"omitempty,oneof=shop buyer"`
}

// ConfirmEmailRequest carries the key sent by email
type ConfirmEmailRequest struct {
	Email string `json:"email" binding:"required"`
	Token string `json:"token" binding:"required"`
}

// LoginRequest represents a login attempt
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries a refresh token
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// LogoutRequest optionally revokes the refresh token along with the access token
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UpdateAccountRequest changes account fields; nil fields are left unchanged
type UpdateAccountRequest struct {
	FirstName *string `json:"first_name" binding:"omitempty,max=150"`
	LastName  *string `json:"last_name" binding:"omitempty,max=150"`
	Email     *string `json:"email" binding:"omitempty,email,max=254"`
	Password  *string `json:"password"`
	Company   *string `json:"company" binding:"omitempty,max=40"`
	Position  *string `json:"position" binding:"omitempty,max=40"`
}

// PasswordResetRequest asks for a reset token by email
type PasswordResetRequest struct {
	Email string `json:"email" binding:"required"`
}

// PasswordResetConfirmRequest sets a new password with a reset token
type PasswordResetConfirmRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ==================== Contact requests ====================

// CreateContactRequest represents a new delivery contact
type CreateContactRequest struct {
	City      string `json:"city" binding:"required,max=50"`
	Street    string `json:"street" binding:"required,max=100"`
	House     string `json:"house" binding:"max=15"`
	Structure string `json:"structure" binding:"max=15"`
	Building  string `json:"building" binding:"max=15"`
	Apartment string `json:"apartment" binding:"max=15"`
	Phone     string `json:"phone" binding:"required,max=20"`
}

func (r CreateContactRequest) details() identity.ContactDetails {
	return identity.ContactDetails{
		City:      &r.City,
		Street:    &r.Street,
		House:     &r.House,
		Structure: &r.Structure,
		Building:  &r.Building,
		Apartment: &r.Apartment,
		Phone:     &r.Phone,
	}
}

// UpdateContactRequest changes a contact; nil fields are left unchanged
type UpdateContactRequest struct {
	ID        common.FlexibleID `json:"id" binding:"required"`
	City      *string           `json:"city" binding:"omitempty,max=50"`
	Street    *string           `json:"street" binding:"omitempty,max=100"`
	House     *string           `json:"house" binding:"omitempty,max=15"`
	Structure *string           `json:"structure" binding:"omitempty,max=15"`
	Building  *string           `json:"building" binding:"omitempty,max=15"`
	Apartment *string           `json:"apartment" binding:"omitempty,max=15"`
	Phone     *string           `json:"phone" binding:"omitempty,max=20"`
}

func (r UpdateContactRequest) details() identity.ContactDetails {
	return identity.ContactDetails{
		City:      r.City,
		Street:    r.Street,
		House:     r.House,
		Structure: r.Structure,
		Building:  r.Building,
		Apartment: r.Apartment,
		Phone:     r.Phone,
	}
}

// DeleteContactsRequest carries a comma separated list of contact ids
type DeleteContactsRequest struct {
	Items string `json:"items" form:"items" binding:"required"`
}

// ==================== Responses ====================

// ContactResponse represents a contact in API responses
type ContactResponse struct {
	ID        int64  `json:"id"`
	City      string `json:"city"`
	Street    string `json:"street"`
	House     string `json:"house"`
	Structure string `json:"structure"`
	Building  string `json:"building"`
	Apartment string `json:"apartment"`
	Phone     string `json:"phone"`
}

// ToContactResponse converts a domain Contact to ContactResponse
func ToContactResponse(c *identity.Contact) ContactResponse {
	return ContactResponse{
		ID:        c.ID,
		City:      c.City,
		Street:    c.Street,
		House:     c.House,
		Structure: c.Structure,
		Building:  c.Building,
		Apartment: c.Apartment,
		Phone:     c.Phone,
	}
}

// ToContactResponses converts a slice of domain Contacts
func ToContactResponses(contacts []identity.Contact) []ContactResponse {
	responses := make([]ContactResponse, len(contacts))
	for i := range contacts {
		responses[i] = ToContactResponse(&contacts[i])
	}
	return responses
}

// UserResponse represents an account in API responses
type UserResponse struct {
	ID        int64             `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Company   string            `json:"company"`
	Position  string            `json:"position"`
	Type      string            `json:"type"`
	IsActive  bool              `json:"is_active"`
	Contacts  []ContactResponse `json:"contacts"`
	CreatedAt time.Time         `json:"created_at"`
}

// ToUserResponse converts a domain User to UserResponse
func ToUserResponse(u *identity.User, contacts []identity.Contact) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Company:   u.Company,
		Position:  u.Position,
		Type:      string(u.Type),
		IsActive:  u.IsActive,
		Contacts:  ToContactResponses(contacts),
		CreatedAt: u.CreatedAt,
	}
}

// TokenResponse carries a token pair
type TokenResponse struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

func toTokenResponse(pair *auth.TokenPair) TokenResponse {
	return TokenResponse{
		AccessToken:           pair.AccessToken,
		RefreshToken:          pair.RefreshToken,
		AccessTokenExpiresAt:  pair.AccessTokenExpiresAt,
		RefreshTokenExpiresAt: pair.RefreshTokenExpiresAt,
		TokenType:             pair.TokenType,
	}
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	TokenResponse
	User UserResponse `json:"user"`
}
