package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"go.uber.org/zap"
)

const (
	JWTClaimsKey  = "jwt_claims"
	JWTUserIDKey  = "user_id"
	AuthHeaderKey = "Authorization"
	BearerPrefix  = "Bearer "

	// UserTypeShop marks partner accounts.
	UserTypeShop = "shop"
)

var errMissingToken = errors.New("missing bearer token")

// authFailures picks the response for a rejected token. The first match
// wins; anything unlisted is a plain ERR_UNAUTHORIZED.
var authFailures = []struct {
	err     error
	code    string
	message string
}{
	{auth.ErrExpiredToken, dto.ErrCodeTokenExpired, "Token has expired"},
	{auth.ErrTokenBlacklisted, dto.ErrCodeTokenRevoked, "Token has been revoked"},
	{auth.ErrInvalidToken, dto.ErrCodeTokenInvalid, "Invalid token"},
	{auth.ErrInvalidTokenType, dto.ErrCodeTokenInvalid, "Invalid token"},
	{auth.ErrTokenNotYetValid, dto.ErrCodeTokenInvalid, "Invalid token"},
}

type JWTMiddlewareConfig struct {
	JWTService *auth.JWTService
	// TokenBlacklist is optional. Lookups that fail let the request through.
	TokenBlacklist auth.TokenBlacklist
	// OnError replaces the default 401 response.
	OnError func(c *gin.Context, err error)
	Logger  *zap.Logger
}

// RequireAuth accepts requests carrying a valid, unrevoked access token and
// exposes its claims through GetJWTClaims and GetJWTUserID.
func RequireAuth(jwtService *auth.JWTService, blacklist auth.TokenBlacklist, log *zap.Logger) gin.HandlerFunc {
	return JWTAuthMiddlewareWithConfig(JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		Logger:         log,
	})
}

func JWTAuthMiddlewareWithConfig(cfg JWTMiddlewareConfig) gin.HandlerFunc {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	reject := func(c *gin.Context, err error) {
		if cfg.OnError != nil {
			cfg.OnError(c, err)
			c.Abort()
			return
		}
		log.Debug("authentication rejected", zap.Error(err), zap.String("path", c.Request.URL.Path))
		code, message := dto.ErrCodeUnauthorized, "Authentication required"
		for _, f := range authFailures {
			if errors.Is(err, f.err) {
				code, message = f.code, f.message
				break
			}
		}
		abortJSON(c, http.StatusUnauthorized, code, message)
	}

	return func(c *gin.Context) {
		raw, ok := bearerToken(c.GetHeader(AuthHeaderKey))
		if !ok {
			reject(c, errMissingToken)
			return
		}
		claims, err := cfg.JWTService.ValidateAccessToken(raw)
		if err != nil {
			reject(c, err)
			return
		}
		if cfg.TokenBlacklist != nil && revoked(c, cfg.TokenBlacklist, claims, log) {
			reject(c, auth.ErrTokenBlacklisted)
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTUserIDKey, claims.UserID)
		ctx := c.Request.Context()
		ctx, _ = logger.WithUserID(ctx, logger.FromContext(ctx), strconv.FormatInt(claims.UserID, 10))
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	token, ok := strings.CutPrefix(header, BearerPrefix)
	token = strings.TrimSpace(token)
	return token, ok && token != ""
}

// revoked checks the jti first, then the per-user cutoff. Lookup errors
// are logged and treated as not revoked.
func revoked(c *gin.Context, blacklist auth.TokenBlacklist, claims *auth.Claims, log *zap.Logger) bool {
	ctx := c.Request.Context()

	if claims.ID != "" {
		hit, err := blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			log.Error("token blacklist lookup failed", zap.String("jti", claims.ID), zap.Error(err))
		} else if hit {
			return true
		}
	}

	cut, err := blacklist.IsUserTokenInvalidated(ctx, claims.UserID, claims.GetIssuedAtTime())
	if err != nil {
		log.Error("token cutoff lookup failed", zap.Int64("user_id", claims.UserID), zap.Error(err))
		return false
	}
	return cut
}

// RequireUserType lets through only tokens of userType. Place it after
// RequireAuth.
func RequireUserType(userType string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetJWTClaims(c)
		switch {
		case claims == nil:
			abortJSON(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, "Authentication required")
		case claims.UserType != userType:
			abortJSON(c, http.StatusForbidden, dto.ErrCodeForbidden, "Only "+userType+" users may access this resource")
		default:
			c.Next()
		}
	}
}

func abortJSON(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, dto.NewErrorResponseWithRequestID(code, message, c.GetString(RequestIDKey)))
}

func GetJWTClaims(c *gin.Context) *auth.Claims {
	claims, _ := c.Value(JWTClaimsKey).(*auth.Claims)
	return claims
}

// GetJWTUserID returns the caller's user id, or zero on public routes.
func GetJWTUserID(c *gin.Context) int64 {
	id, _ := c.Value(JWTUserIDKey).(int64)
	return id
}
