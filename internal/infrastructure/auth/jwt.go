package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shop/backend/internal/infrastructure/config"
)

type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidTokenType = errors.New("invalid token type")
	ErrTokenNotYetValid = errors.New("token is not yet valid")
	ErrMissingUserID    = errors.New("missing user_id in claims")
	ErrTokenBlacklisted = errors.New("token has been revoked")
)

// parseErrors maps jwt validation failures onto ours. Anything else is
// ErrInvalidToken.
var parseErrors = []struct{ from, to error }{
	{jwt.ErrTokenExpired, ErrExpiredToken},
	{jwt.ErrTokenNotValidYet, ErrTokenNotYetValid},
}

// Claims is the payload of both token kinds. Refresh tokens carry only
// the user id; the rest is reloaded from the user record on refresh.
type Claims struct {
	jwt.RegisteredClaims
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email,omitempty"`
	UserType  string    `json:"user_type,omitempty"`
	TokenType TokenType `json:"token_type"`
}

func (c *Claims) IsShop() bool {
	return c.UserType == "shop"
}

// GetRemainingTTL is how long the token stays valid, never negative. The
// blacklist keeps revoked ids for exactly this long.
func (c *Claims) GetRemainingTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return max(time.Until(c.ExpiresAt.Time), 0)
}

func (c *Claims) GetIssuedAtTime() time.Time {
	if c.IssuedAt == nil {
		return time.Time{}
	}
	return c.IssuedAt.Time
}

type TokenPair struct {
	AccessToken           string    `json:"access_token"`
	RefreshToken          string    `json:"refresh_token"`
	AccessTokenExpiresAt  time.Time `json:"access_token_expires_at"`
	RefreshTokenExpiresAt time.Time `json:"refresh_token_expires_at"`
	TokenType             string    `json:"token_type"`
}

type GenerateTokenInput struct {
	UserID   int64
	Email    string
	UserType string
}

type signingKey struct {
	secret []byte
	ttl    time.Duration
}

// JWTService issues and checks HS256 tokens. Access and refresh tokens
// use separate secrets unless jwt.refresh_secret is empty.
type JWTService struct {
	access  signingKey
	refresh signingKey
	issuer  string
	now     func() time.Time
}

func NewJWTService(cfg config.JWTConfig) *JWTService {
	refreshSecret := cfg.RefreshSecret
	if refreshSecret == "" {
		refreshSecret = cfg.Secret
	}
	return &JWTService{
		access:  signingKey{secret: []byte(cfg.Secret), ttl: cfg.AccessTokenExpiration},
		refresh: signingKey{secret: []byte(refreshSecret), ttl: cfg.RefreshTokenExpiration},
		issuer:  cfg.Issuer,
		now:     time.Now,
	}
}

func (s *JWTService) GenerateTokenPair(in GenerateTokenInput) (*TokenPair, error) {
	if in.UserID <= 0 {
		return nil, ErrMissingUserID
	}
	now := s.now()

	access, err := s.sign(s.access, now, Claims{
		UserID:    in.UserID,
		Email:     in.Email,
		UserType:  in.UserType,
		TokenType: TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}
	refresh, err := s.sign(s.refresh, now, Claims{UserID: in.UserID, TokenType: TokenTypeRefresh})
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:           access,
		RefreshToken:          refresh,
		AccessTokenExpiresAt:  now.Add(s.access.ttl),
		RefreshTokenExpiresAt: now.Add(s.refresh.ttl),
		TokenType:             "Bearer",
	}, nil
}

func (s *JWTService) sign(key signingKey, now time.Time, claims Claims) (string, error) {
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Issuer:    s.issuer,
		Subject:   strconv.FormatInt(claims.UserID, 10),
		Audience:  jwt.ClaimStrings{s.issuer},
		IssuedAt:  jwt.NewNumericDate(now),
		NotBefore: jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(key.ttl)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, &claims).SignedString(key.secret)
}

func (s *JWTService) ValidateAccessToken(raw string) (*Claims, error) {
	return s.parse(raw, s.access, TokenTypeAccess)
}

func (s *JWTService) ValidateRefreshToken(raw string) (*Claims, error) {
	return s.parse(raw, s.refresh, TokenTypeRefresh)
}

func (s *JWTService) parse(raw string, key signingKey, want TokenType) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	var claims Claims
	if _, err := parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return key.secret, nil
	}); err != nil {
		for _, m := range parseErrors {
			if errors.Is(err, m.from) {
				return nil, m.to
			}
		}
		return nil, ErrInvalidToken
	}

	switch {
	case claims.TokenType != want:
		return nil, ErrInvalidTokenType
	case claims.UserID <= 0:
		return nil, ErrMissingUserID
	}
	return &claims, nil
}
