package identity

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shop/backend/internal/domain/identity"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/auth"
	"github.com/shop/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// DefaultPasswordResetTTL is how long a reset token stays valid
const DefaultPasswordResetTTL = 24 * time.Hour

var (
	errWrongConfirmation = shared.NewDomainError("INVALID_INPUT", "wrong token or email")
	errInvalidCredential = shared.NewDomainError("UNAUTHORIZED", "Invalid email or password")
	errInvalidResetToken = shared.NewDomainError("INVALID_INPUT", "Invalid or expired password reset token")
)

// AuthServiceConfig contains configuration for the auth service
type AuthServiceConfig struct {
	PasswordResetTTL time.Duration
}

// AuthService handles registration, login and token lifecycle
type AuthService struct {
	users         identity.UserRepository
	confirmTokens identity.ConfirmEmailTokenRepository
	resetTokens   identity.PasswordResetTokenRepository
	jwtService    *auth.JWTService
	blacklist     auth.TokenBlacklist
	publisher     shared.EventPublisher
	config        AuthServiceConfig
	logger        *zap.Logger
	now           func() time.Time
}

// NewAuthService creates a new authentication service
func NewAuthService(
	users identity.UserRepository,
	confirmTokens identity.ConfirmEmailTokenRepository,
	resetTokens identity.PasswordResetTokenRepository,
	jwtService *auth.JWTService,
	blacklist auth.TokenBlacklist,
	config AuthServiceConfig,
	logger *zap.Logger,
) *AuthService {
	if config.PasswordResetTTL <= 0 {
		config.PasswordResetTTL = DefaultPasswordResetTTL
	}
	return &AuthService{
		users:         users,
		confirmTokens: confirmTokens,
		resetTokens:   resetTokens,
		jwtService:    jwtService,
		blacklist:     blacklist,
		config:        config,
		logger:        logger,
		now:           time.Now,
	}
}

// SetEventPublisher sets the publisher for account events
func (s *AuthService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

func (s *AuthService) log(ctx context.Context) *zap.Logger {
	return logger.FromContextOr(ctx, s.logger)
}

// Register creates an inactive account and issues an email confirmation token
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*UserResponse, error) {
	if strings.TrimSpace(req.Company) == "" || strings.TrimSpace(req.Position) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Company and position are required")
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
	}

	user, err := identity.NewUser(req.Email, req.Password, req.FirstName, req.LastName)
	if err != nil {
		return nil, err
	}
	if err := user.SetCompany(strings.TrimSpace(req.Company), strings.TrimSpace(req.Position)); err != nil {
		return nil, err
	}
	if req.Type != "" {
		if err := user.SetType(identity.UserType(req.Type)); err != nil {
			return nil, err
		}
	}

	if err := s.users.Save(ctx, user); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "User with this email already exists")
		}
		return nil, err
	}

	token := identity.NewConfirmEmailToken(user.ID)
	if err := s.confirmTokens.Create(ctx, token); err != nil {
		return nil, err
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, identity.NewUserRegisteredEvent(user, token)); err != nil {
			s.log(ctx).Error("failed to publish user registered event", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}

	s.log(ctx).Info("user registered", zap.Int64("user_id", user.ID), zap.String("type", string(user.Type)))
	response := ToUserResponse(user, nil)
	return &response, nil
}

// ConfirmEmail activates the account when the token was issued for that email
func (s *AuthService) ConfirmEmail(ctx context.Context, req ConfirmEmailRequest) error {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errWrongConfirmation
		}
		return err
	}
	token, err := s.confirmTokens.FindByKey(ctx, req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errWrongConfirmation
		}
		return err
	}
	if token.UserID != user.ID {
		return errWrongConfirmation
	}

	user.Activate()
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.confirmTokens.Delete(ctx, token.ID); err != nil {
		s.log(ctx).Warn("failed to delete confirmation token", zap.Int64("token_id", token.ID), zap.Error(err))
	}
	if err := shared.PublishAndClear(ctx, s.publisher, user); err != nil {
		s.log(ctx).Error("failed to publish user events", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.log(ctx).Info("email confirmed", zap.Int64("user_id", user.ID))
	return nil
}

// Login checks credentials of an active account and returns a token pair
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			s.log(ctx).Warn("login for unknown email")
			return nil, errInvalidCredential
		}
		return nil, err
	}
	if !user.CanLogin() || !user.VerifyPassword(req.Password) {
		s.log(ctx).Warn("login rejected", zap.Int64("user_id", user.ID), zap.Bool("active", user.IsActive))
		return nil, errInvalidCredential
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}

	s.log(ctx).Info("user logged in", zap.Int64("user_id", user.ID))
	return &LoginResponse{
		TokenResponse: toTokenResponse(pair),
		User:          ToUserResponse(user, nil),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The used refresh token is revoked.
func (s *AuthService) Refresh(ctx context.Context, req RefreshRequest) (*TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		s.log(ctx).Warn("refresh token rejected", zap.Error(err))
		if errors.Is(err, auth.ErrExpiredToken) {
			return nil, shared.NewDomainError("TOKEN_EXPIRED", "Refresh token has expired")
		}
		return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
	}

	if s.blacklist != nil {
		revoked, err := s.blacklist.IsBlacklisted(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, shared.NewDomainError("TOKEN_REVOKED", "Refresh token has been revoked")
		}
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("TOKEN_INVALID", "Invalid refresh token")
		}
		return nil, err
	}
	if !user.CanLogin() {
		return nil, shared.NewDomainError("UNAUTHORIZED", "Account is not active")
	}

	pair, err := s.issue(user)
	if err != nil {
		return nil, err
	}
	s.revoke(ctx, claims)

	response := toTokenResponse(pair)
	return &response, nil
}

// Logout revokes the access token and, when given, the refresh token
func (s *AuthService) Logout(ctx context.Context, access *auth.Claims, req LogoutRequest) error {
	s.revoke(ctx, access)
	if req.RefreshToken != "" {
		if claims, err := s.jwtService.ValidateRefreshToken(req.RefreshToken); err == nil && claims.UserID == access.UserID {
			s.revoke(ctx, claims)
		}
	}
	s.log(ctx).Info("user logged out", zap.Int64("user_id", access.UserID))
	return nil
}

// RequestPasswordReset issues a reset token. Unknown emails succeed silently.
func (s *AuthService) RequestPasswordReset(ctx context.Context, req PasswordResetRequest) error {
	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}

	token := identity.NewPasswordResetToken(user.ID)
	if err := s.resetTokens.Create(ctx, token); err != nil {
		return err
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, identity.NewPasswordResetRequestedEvent(user, token)); err != nil {
			s.log(ctx).Error("failed to publish password reset event", zap.Int64("user_id", user.ID), zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset sets a new password with an unexpired reset token
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, req PasswordResetConfirmRequest) error {
	token, err := s.resetTokens.FindByKey(ctx, req.Token)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}
	if token.IsExpired(s.config.PasswordResetTTL, s.now()) {
		if err := s.resetTokens.DeleteByUser(ctx, token.UserID); err != nil {
			s.log(ctx).Warn("failed to delete expired reset tokens", zap.Int64("user_id", token.UserID), zap.Error(err))
		}
		return errInvalidResetToken
	}

	user, err := s.users.FindByID(ctx, token.UserID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return errInvalidResetToken
		}
		return err
	}
	if err := user.SetPassword(req.Password); err != nil {
		return err
	}
	if err := s.users.Save(ctx, user); err != nil {
		return err
	}
	if err := s.resetTokens.DeleteByUser(ctx, user.ID); err != nil {
		s.log(ctx).Warn("failed to delete reset tokens", zap.Int64("user_id", user.ID), zap.Error(err))
	}

	s.log(ctx).Info("password reset", zap.Int64("user_id", user.ID))
	return nil
}

func (s *AuthService) issue(user *identity.User) (*auth.TokenPair, error) {
	pair, err := s.jwtService.GenerateTokenPair(auth.GenerateTokenInput{
		UserID:   user.ID,
		Email:    user.Email,
		UserType: string(user.Type),
	})
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to generate authentication tokens")
	}
	return pair, nil
}

// revoke blacklists a token for the rest of its lifetime. Failures are logged.
func (s *AuthService) revoke(ctx context.Context, claims *auth.Claims) {
	if s.blacklist == nil || claims == nil || claims.ID == "" {
		return
	}
	if err := s.blacklist.AddToBlacklist(ctx, claims.ID, claims.GetRemainingTTL()); err != nil {
		s.log(ctx).Error("failed to revoke token", zap.String("jti", claims.ID), zap.Error(err))
	}
}
