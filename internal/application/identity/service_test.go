package identity

import (
	"context"
	"testing"
	"time"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/infrastructure/persistence"
	"github.com/shop/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testPassword = "Tr1cky-Lantern-42"

type identityFixture struct {
	auth      *AuthService
	accounts  *AccountService
	jwt       *auth.JWTService
	blacklist *auth.InMemoryTokenBlacklist
	publisher *testutil.RecordingPublisher
	users     *persistence.GormUserRepository
}

func newIdentityFixture(t *testing.T) *identityFixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	users := persistence.NewGormUserRepository(db)
	contacts := persistence.NewGormContactRepository(db)
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: time.Hour,
		Issuer:                 "shop-test",
	})
	blacklist := auth.NewInMemoryTokenBlacklist()
	publisher := testutil.NewRecordingPublisher()

	authService := NewAuthService(
		users,
		persistence.NewGormConfirmEmailTokenRepository(db),
		persistence.NewGormPasswordResetTokenRepository(db),
		jwtService,
		blacklist,
		AuthServiceConfig{},
		zap.NewNop(),
	)
	authService.SetEventPublisher(publisher)

	return &identityFixture{
		auth:      authService,
		accounts:  NewAccountService(users, contacts, zap.NewNop()),
		jwt:       jwtService,
		blacklist: blacklist,
		publisher: publisher,
		users:     users,
	}
}

func registerRequest(email string) RegisterRequest {
	return RegisterRequest{
		FirstName: "Ivan",
		LastName:  "Petrov",
		Email:     email,
		Password:  testPassword,
		Company:   "Acme",
		Position:  "Buyer",
	}
}

// activeUser registers and confirms an account
func (f *identityFixture) activeUser(t *testing.T, email string) *UserResponse {
	t.Helper()
	ctx := context.Background()
	user, err := f.auth.Register(ctx, registerRequest(email))
	require.NoError(t, err)

	events := f.publisher.OfType(identity.EventTypeUserRegistered)
	registered := events[len(events)-1].(*identity.UserRegisteredEvent)
	require.NoError(t, f.auth.ConfirmEmail(ctx, ConfirmEmailRequest{Email: email, Token: registered.TokenKey}))
	return user
}

func TestAuthService_Register(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	req := registerRequest("Ivan@Example.COM")
	req.Type = "shop"
	user, err := f.auth.Register(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Ivan@example.com", user.Email)
	assert.Equal(t, "shop", user.Type)
	assert.False(t, user.IsActive)

	events := f.publisher.OfType(identity.EventTypeUserRegistered)
	require.Len(t, events, 1)
	registered := events[0].(*identity.UserRegisteredEvent)
	assert.Equal(t, user.ID, registered.UserID)
	assert.Len(t, registered.TokenKey, 64)

	_, err = f.auth.Register(ctx, registerRequest("Ivan@example.com"))
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)
}

func TestAuthService_Register_Validation(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RegisterRequest)
	}{
		{"short password", func(r *RegisterRequest) { r.Password = "Ab1" }},
		{"numeric password", func(r *RegisterRequest) { r.Password = "1234598765" }},
		{"common password", func(r *RegisterRequest) { r.Password = "password123" }},
		{"missing company", func(r *RegisterRequest) { r.Company = " " }},
		{"bad email", func(r *RegisterRequest) { r.Email = "not-an-email" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := registerRequest("user@example.com")
			tt.mutate(&req)
			_, err := f.auth.Register(ctx, req)
			assert.ErrorIs(t, err, shared.ErrInvalidInput)
		})
	}
	assert.Empty(t, f.publisher.Events())
}

func TestAuthService_ConfirmEmail(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, registerRequest("a@example.com"))
	require.NoError(t, err)
	_, err = f.auth.Register(ctx, registerRequest("b@example.com"))
	require.NoError(t, err)
	events := f.publisher.OfType(identity.EventTypeUserRegistered)
	tokenA := events[0].(*identity.UserRegisteredEvent).TokenKey

	err = f.auth.ConfirmEmail(ctx, ConfirmEmailRequest{Email: "b@example.com", Token: tokenA})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
	err = f.auth.ConfirmEmail(ctx, ConfirmEmailRequest{Email: "nobody@example.com", Token: tokenA})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, f.auth.ConfirmEmail(ctx, ConfirmEmailRequest{Email: "a@example.com", Token: tokenA}))
	user, err := f.users.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.True(t, user.IsActive)
	assert.Len(t, f.publisher.OfType(identity.EventTypeUserActivated), 1)

	// the token is single use
	err = f.auth.ConfirmEmail(ctx, ConfirmEmailRequest{Email: "a@example.com", Token: tokenA})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAuthService_Login(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, registerRequest("inactive@example.com"))
	require.NoError(t, err)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "inactive@example.com", Password: testPassword})
	assert.ErrorIs(t, err, shared.ErrUnauthorized, "inactive accounts cannot log in")

	user := f.activeUser(t, "active@example.com")
	_, err = f.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: "Wrong-Passw0rd"})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "ghost@example.com", Password: testPassword})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)

	result, err := f.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: testPassword})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", result.TokenType)
	assert.Equal(t, user.ID, result.User.ID)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "buyer", claims.UserType)
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.activeUser(t, "active@example.com")

	login, err := f.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: testPassword})
	require.NoError(t, err)

	refreshed, err := f.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.AccessToken, refreshed.AccessToken)

	_, err = f.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.RefreshToken})
	de, ok := shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_REVOKED", de.Code, "a refresh token is single use")

	_, err = f.auth.Refresh(ctx, RefreshRequest{RefreshToken: login.AccessToken})
	de, ok = shared.AsDomainError(err)
	require.True(t, ok)
	assert.Equal(t, "TOKEN_INVALID", de.Code)

	access, err := f.jwt.ValidateAccessToken(refreshed.AccessToken)
	require.NoError(t, err)
	require.NoError(t, f.auth.Logout(ctx, access, LogoutRequest{RefreshToken: refreshed.RefreshToken}))

	revoked, err := f.blacklist.IsBlacklisted(ctx, access.ID)
	require.NoError(t, err)
	assert.True(t, revoked)

	_, err = f.auth.Refresh(ctx, RefreshRequest{RefreshToken: refreshed.RefreshToken})
	assert.Error(t, err)
}

func TestAuthService_PasswordReset(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.activeUser(t, "active@example.com")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, PasswordResetRequest{Email: "ghost@example.com"}))
	assert.Empty(t, f.publisher.OfType(identity.EventTypePasswordResetRequested))

	require.NoError(t, f.auth.RequestPasswordReset(ctx, PasswordResetRequest{Email: "active@example.com"}))
	events := f.publisher.OfType(identity.EventTypePasswordResetRequested)
	require.Len(t, events, 1)
	key := events[0].(*identity.PasswordResetRequestedEvent).TokenKey

	err := f.auth.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: "nope", Password: "Another-Secret-9"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = f.auth.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: key, Password: "short"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	require.NoError(t, f.auth.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: key, Password: "Another-Secret-9"}))

	_, err = f.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: testPassword})
	assert.ErrorIs(t, err, shared.ErrUnauthorized)
	_, err = f.auth.Login(ctx, LoginRequest{Email: "active@example.com", Password: "Another-Secret-9"})
	require.NoError(t, err)

	err = f.auth.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: key, Password: "Third-Secret-77"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput, "reset tokens are single use")
}

func TestAuthService_PasswordResetExpires(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	f.activeUser(t, "active@example.com")

	require.NoError(t, f.auth.RequestPasswordReset(ctx, PasswordResetRequest{Email: "active@example.com"}))
	key := f.publisher.OfType(identity.EventTypePasswordResetRequested)[0].(*identity.PasswordResetRequestedEvent).TokenKey

	f.auth.now = func() time.Time { return time.Now().Add(DefaultPasswordResetTTL + time.Hour) }
	err := f.auth.ConfirmPasswordReset(ctx, PasswordResetConfirmRequest{Token: key, Password: "Another-Secret-9"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestAccountService_UpdateAccount(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	user := f.activeUser(t, "active@example.com")
	f.activeUser(t, "taken@example.com")

	first := "Pyotr"
	company := "Globex"
	updated, err := f.accounts.UpdateAccount(ctx, user.ID, UpdateAccountRequest{FirstName: &first, Company: &company})
	require.NoError(t, err)
	assert.Equal(t, "Pyotr", updated.FirstName)
	assert.Equal(t, "Petrov", updated.LastName)
	assert.Equal(t, "Globex", updated.Company)
	assert.Equal(t, "Buyer", updated.Position)

	taken := "taken@example.com"
	_, err = f.accounts.UpdateAccount(ctx, user.ID, UpdateAccountRequest{Email: &taken})
	assert.ErrorIs(t, err, shared.ErrAlreadyExists)

	weak := "12345678"
	_, err = f.accounts.UpdateAccount(ctx, user.ID, UpdateAccountRequest{Password: &weak})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	_, err = f.accounts.GetAccount(ctx, 9999)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAccountService_Contacts(t *testing.T) {
	f := newIdentityFixture(t)
	ctx := context.Background()
	owner := f.activeUser(t, "owner@example.com")
	other := f.activeUser(t, "other@example.com")

	created, err := f.accounts.CreateContact(ctx, owner.ID, CreateContactRequest{City: "Moscow", Street: "Arbat", Phone: "+7900"})
	require.NoError(t, err)
	foreign, err := f.accounts.CreateContact(ctx, other.ID, CreateContactRequest{City: "Kazan", Street: "Baumana", Phone: "+7901"})
	require.NoError(t, err)

	_, err = f.accounts.CreateContact(ctx, owner.ID, CreateContactRequest{City: "Moscow", Phone: "+7900"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	house := "12"
	updated, err := f.accounts.UpdateContact(ctx, owner.ID, UpdateContactRequest{ID: 0, House: &house})
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Nil(t, updated)

	updated, err = f.accounts.UpdateContact(ctx, owner.ID, UpdateContactRequest{ID: commonID(created.ID), House: &house})
	require.NoError(t, err)
	assert.Equal(t, "12", updated.House)
	assert.Equal(t, "Arbat", updated.Street)

	_, err = f.accounts.UpdateContact(ctx, owner.ID, UpdateContactRequest{ID: commonID(foreign.ID), House: &house})
	assert.ErrorIs(t, err, shared.ErrNotFound)

	account, err := f.accounts.GetAccount(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, account.Contacts, 1)

	_, err = f.accounts.DeleteContacts(ctx, owner.ID, "x,y")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	deleted, err := f.accounts.DeleteContacts(ctx, owner.ID, idList(created.ID, foreign.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted, "contacts of other users are out of scope")

	contacts, err := f.accounts.ListContacts(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, contacts, 1)
}
