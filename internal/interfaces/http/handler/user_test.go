package handler_test

import (
	"net/http"
	"strconv"
	"testing"

	"github.com/shop/backend/internal/application/identity"
	domainidentity "github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/shop/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserAPI_RegistrationFlow(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/api/v1/user/register", registerBody("buyer@example.com", ""), "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	user := testutil.DecodeData[identity.UserResponse](t, w)
	assert.Equal(t, "buyer@example.com", user.Email)
	assert.Equal(t, "buyer", user.Type)
	assert.False(t, user.IsActive)

	t.Run("login before confirmation is rejected", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
			"email":    "buyer@example.com",
			"password": testPassword,
		}, "")
		testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)
	})

	t.Run("wrong confirmation token", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/user/register/confirm", map[string]string{
			"email": "buyer@example.com",
			"token": "nope",
		}, "")
		testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
	})

	t.Run("duplicate email", func(t *testing.T) {
		w := f.do(t, http.MethodPost, "/api/v1/user/register", registerBody("buyer@example.com", ""), "")
		testutil.AssertErrorResponse(t, w, http.StatusConflict, dto.ErrCodeAlreadyExists)
	})

	w = f.do(t, http.MethodPost, "/api/v1/user/register/confirm", map[string]string{
		"email": "buyer@example.com",
		"token": f.confirmToken(t),
	}, "")
	testutil.StatusOK(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email":    "buyer@example.com",
		"password": testPassword,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := testutil.DecodeData[identity.LoginResponse](t, w)
	assert.NotEmpty(t, login.AccessToken)
	assert.NotEmpty(t, login.RefreshToken)
	assert.Equal(t, "Bearer", login.TokenType)
	assert.True(t, login.User.IsActive)
}

func TestUserAPI_RegisterValidation(t *testing.T) {
	f := newAPIFixture(t)

	body := registerBody("not-an-email", "")
	delete(body, "company")
	w := f.do(t, http.MethodPost, "/api/v1/user/register", body, "")

	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)
	assert.Contains(t, w.Body.String(), `"field":"email"`)
	assert.Contains(t, w.Body.String(), `"field":"company"`)
}

func TestUserAPI_WeakPasswordRejected(t *testing.T) {
	f := newAPIFixture(t)

	body := registerBody("buyer@example.com", "")
	body["password"] = "12345678"
	w := f.do(t, http.MethodPost, "/api/v1/user/register", body, "")

	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)
}

func TestUserAPI_Details(t *testing.T) {
	f := newAPIFixture(t)
	login := f.signUp(t, "buyer@example.com", "buyer")

	w := f.do(t, http.MethodGet, "/api/v1/user/details", nil, "")
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeUnauthorized)

	w = f.do(t, http.MethodGet, "/api/v1/user/details", nil, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ivan", testutil.DecodeData[identity.UserResponse](t, w).FirstName)

	w = f.do(t, http.MethodPost, "/api/v1/user/details", map[string]string{"first_name": "Pyotr"}, login.AccessToken)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := testutil.DecodeData[identity.UserResponse](t, w)
	assert.Equal(t, "Pyotr", updated.FirstName)
	assert.Equal(t, "Petrov", updated.LastName)
}

func TestUserAPI_RefreshRotatesTokens(t *testing.T) {
	f := newAPIFixture(t)
	login := f.signUp(t, "buyer@example.com", "buyer")

	w := f.do(t, http.MethodPost, "/api/v1/user/refresh", map[string]string{"refresh_token": login.RefreshToken}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tokens := testutil.DecodeData[identity.TokenResponse](t, w)
	assert.NotEqual(t, login.RefreshToken, tokens.RefreshToken)

	w = f.do(t, http.MethodPost, "/api/v1/user/refresh", map[string]string{"refresh_token": login.RefreshToken}, "")
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)

	w = f.do(t, http.MethodPost, "/api/v1/user/refresh", map[string]string{"refresh_token": login.AccessToken}, "")
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenInvalid)
}

func TestUserAPI_LogoutRevokesTokens(t *testing.T) {
	f := newAPIFixture(t)
	login := f.signUp(t, "buyer@example.com", "buyer")

	w := f.do(t, http.MethodPost, "/api/v1/user/logout", map[string]string{"refresh_token": login.RefreshToken}, login.AccessToken)
	testutil.StatusOK(t, w)

	w = f.do(t, http.MethodGet, "/api/v1/user/details", nil, login.AccessToken)
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)

	w = f.do(t, http.MethodPost, "/api/v1/user/refresh", map[string]string{"refresh_token": login.RefreshToken}, "")
	testutil.AssertErrorResponse(t, w, http.StatusUnauthorized, dto.ErrCodeTokenRevoked)
}

func TestUserAPI_PasswordReset(t *testing.T) {
	f := newAPIFixture(t)
	f.signUp(t, "buyer@example.com", "buyer")

	w := f.do(t, http.MethodPost, "/api/v1/user/password_reset", map[string]string{"email": "ghost@example.com"}, "")
	testutil.StatusOK(t, w)
	assert.Empty(t, f.publisher.OfType(domainidentity.EventTypePasswordResetRequested))

	w = f.do(t, http.MethodPost, "/api/v1/user/password_reset", map[string]string{"email": "buyer@example.com"}, "")
	testutil.StatusOK(t, w)
	events := f.publisher.OfType(domainidentity.EventTypePasswordResetRequested)
	require.Len(t, events, 1)
	token := events[0].(*domainidentity.PasswordResetRequestedEvent).TokenKey

	const newPassword = "Quiet-Harbor-Lamp-7"
	w = f.do(t, http.MethodPost, "/api/v1/user/password_reset/confirm", map[string]string{
		"token":    token,
		"password": newPassword,
	}, "")
	testutil.StatusOK(t, w)

	w = f.do(t, http.MethodPost, "/api/v1/user/password_reset/confirm", map[string]string{
		"token":    token,
		"password": newPassword,
	}, "")
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)

	w = f.do(t, http.MethodPost, "/api/v1/user/login", map[string]string{
		"email":    "buyer@example.com",
		"password": newPassword,
	}, "")
	testutil.StatusOK(t, w)
}

func TestContactAPI_CRUD(t *testing.T) {
	f := newAPIFixture(t)
	login := f.signUp(t, "buyer@example.com", "buyer")
	token := login.AccessToken

	w := f.do(t, http.MethodPost, "/api/v1/user/contact", map[string]string{"city": "Moscow"}, token)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeValidation)

	w = f.do(t, http.MethodPost, "/api/v1/user/contact", map[string]string{
		"city":   "Moscow",
		"street": "Tverskaya",
		"house":  "7",
		"phone":  "+79990001122",
	}, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contact := testutil.DecodeData[identity.ContactResponse](t, w)
	assert.Equal(t, "Tverskaya", contact.Street)

	w = f.do(t, http.MethodPut, "/api/v1/user/contact", map[string]any{
		"id":        strconv.FormatInt(contact.ID, 10),
		"apartment": "12",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "12", testutil.DecodeData[identity.ContactResponse](t, w).Apartment)

	w = f.do(t, http.MethodGet, "/api/v1/user/contact", nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, testutil.DecodeData[[]identity.ContactResponse](t, w), 1)

	other := f.signUp(t, "other@example.com", "buyer")
	w = f.do(t, http.MethodPut, "/api/v1/user/contact", map[string]any{"id": contact.ID, "apartment": "1"}, other.AccessToken)
	testutil.AssertErrorResponse(t, w, http.StatusNotFound, dto.ErrCodeNotFound)

	w = f.do(t, http.MethodDelete, "/api/v1/user/contact", map[string]string{"items": "x,y"}, token)
	testutil.AssertErrorResponse(t, w, http.StatusBadRequest, dto.ErrCodeInvalidInput)

	w = f.do(t, http.MethodDelete, "/api/v1/user/contact", map[string]string{
		"items": strconv.FormatInt(contact.ID, 10) + ",999",
	}, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int64(1), testutil.DecodeData[dto.CountResponse](t, w).Count)
}
