package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/config"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type mockBlacklist struct {
	mock.Mock
}

func (m *mockBlacklist) AddToBlacklist(ctx context.Context, jti string, ttl time.Duration) error {
	return m.Called(ctx, jti, ttl).Error(0)
}

func (m *mockBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	args := m.Called(ctx, jti)
	return args.Bool(0), args.Error(1)
}

func (m *mockBlacklist) InvalidateUserTokens(ctx context.Context, userID int64, ttl time.Duration) error {
	return m.Called(ctx, userID, ttl).Error(0)
}

func (m *mockBlacklist) IsUserTokenInvalidated(ctx context.Context, userID int64, issuedAt time.Time) (bool, error) {
	args := m.Called(ctx, userID, issuedAt)
	return args.Bool(0), args.Error(1)
}

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Secret:                 "test-secret-key-at-least-32-chars",
		RefreshSecret:          "test-refresh-secret-key-32-chars",
		AccessTokenExpiration:  15 * time.Minute,
		RefreshTokenExpiration: 7 * 24 * time.Hour,
		Issuer:                 "test-issuer",
	}
}

func newTestTokenPair(t *testing.T, jwtService *auth.JWTService, userType string) *auth.TokenPair {
	t.Helper()
	pair, err := jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   7,
		Email:    "buyer@example.com",
		UserType: userType,
	})
	require.NoError(t, err)
	return pair
}

func newAuthRouter(mw ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(mw...)
	router.GET("/test", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetJWTUserID(c)})
	})
	return router
}

func doAuthRequest(router http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if header != "" {
		req.Header.Set(AuthHeaderKey, header)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestRequireAuth_ValidToken(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair := newTestTokenPair(t, jwtService, "buyer")

	rec := doAuthRequest(newAuthRouter(RequireAuth(jwtService, nil, zap.NewNop())), BearerPrefix+pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user_id":7}`, rec.Body.String())
}

func TestRequireAuth_Rejections(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair := newTestTokenPair(t, jwtService, "buyer")

	expiredCfg := testJWTConfig()
	expiredCfg.AccessTokenExpiration = -time.Hour
	expired := newTestTokenPair(t, auth.NewJWTService(expiredCfg), "buyer")

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{"missing header", "", dto.ErrCodeUnauthorized},
		{"wrong scheme", "Token " + pair.AccessToken, dto.ErrCodeUnauthorized},
		{"empty token", "Bearer ", dto.ErrCodeUnauthorized},
		{"garbage token", "Bearer not-a-jwt", dto.ErrCodeTokenInvalid},
		{"refresh token used as access", BearerPrefix + pair.RefreshToken, dto.ErrCodeTokenInvalid},
		{"expired token", BearerPrefix + expired.AccessToken, dto.ErrCodeTokenExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doAuthRequest(newAuthRouter(RequireAuth(jwtService, nil, zap.NewNop())), tt.header)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestRequireAuth_BlacklistedToken(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair := newTestTokenPair(t, jwtService, "buyer")
	claims, err := jwtService.ValidateAccessToken(pair.AccessToken)
	require.NoError(t, err)

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.AddToBlacklist(context.Background(), claims.ID, time.Minute))

	rec := doAuthRequest(newAuthRouter(RequireAuth(jwtService, blacklist, zap.NewNop())), BearerPrefix+pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))
}

func TestRequireAuth_InvalidatedUser(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair := newTestTokenPair(t, jwtService, "buyer")

	blacklist := auth.NewInMemoryTokenBlacklist()
	require.NoError(t, blacklist.InvalidateUserTokens(context.Background(), 7, time.Hour))

	rec := doAuthRequest(newAuthRouter(RequireAuth(jwtService, blacklist, zap.NewNop())), BearerPrefix+pair.AccessToken)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrCodeTokenRevoked, errorCode(t, rec))
}

func TestRequireAuth_BlacklistOutageFailsOpen(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	pair := newTestTokenPair(t, jwtService, "buyer")

	blacklist := new(mockBlacklist)
	blacklist.On("IsBlacklisted", mock.Anything, mock.AnythingOfType("string")).Return(false, errors.New("redis down"))
	blacklist.On("IsUserTokenInvalidated", mock.Anything, int64(7), mock.AnythingOfType("time.Time")).Return(false, errors.New("redis down"))

	rec := doAuthRequest(newAuthRouter(RequireAuth(jwtService, blacklist, zap.NewNop())), BearerPrefix+pair.AccessToken)

	assert.Equal(t, http.StatusOK, rec.Code)
	blacklist.AssertExpectations(t)
}

func TestRequireAuth_OnError(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())
	var got error

	mw := JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService: jwtService,
		OnError: func(c *gin.Context, err error) {
			got = err
			c.Status(http.StatusTeapot)
		},
	})
	rec := doAuthRequest(newAuthRouter(mw), "")

	assert.Equal(t, http.StatusTeapot, rec.Code)
	assert.ErrorIs(t, got, errMissingToken)
}

func TestRequireUserType(t *testing.T) {
	jwtService := auth.NewJWTService(testJWTConfig())

	t.Run("shop user passes", func(t *testing.T) {
		pair := newTestTokenPair(t, jwtService, UserTypeShop)
		router := newAuthRouter(RequireAuth(jwtService, nil, zap.NewNop()), RequireUserType(UserTypeShop))

		rec := doAuthRequest(router, BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("buyer is forbidden", func(t *testing.T) {
		pair := newTestTokenPair(t, jwtService, "buyer")
		router := newAuthRouter(RequireAuth(jwtService, nil, zap.NewNop()), RequireUserType(UserTypeShop))

		rec := doAuthRequest(router, BearerPrefix+pair.AccessToken)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, dto.ErrCodeForbidden, errorCode(t, rec))
	})

	t.Run("without RequireAuth", func(t *testing.T) {
		rec := doAuthRequest(newAuthRouter(RequireUserType(UserTypeShop)), "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGetJWTUserID_Unset(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.Zero(t, GetJWTUserID(c))
	assert.Nil(t, GetJWTClaims(c))
}
