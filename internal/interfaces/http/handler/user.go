package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/shop/backend/internal/application/identity"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/shop/backend/internal/interfaces/http/middleware"
)

// UserHandler handles registration, authentication and account details
type UserHandler struct {
	BaseHandler
	authService    *identity.AuthService
	accountService *identity.AccountService
}

// NewUserHandler creates a new user handler
func NewUserHandler(authService *identity.AuthService, accountService *identity.AccountService) *UserHandler {
	return &UserHandler{
		authService:    authService,
		accountService: accountService,
	}
}

// Register godoc
// @Summary      Register a new account
// @Description  Creates an inactive account and sends an email confirmation token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.RegisterRequest true "Account data"
// @Success      201 {object} dto.Response{data=identity.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/register [post]
func (h *UserHandler) Register(c *gin.Context) {
	var req identity.RegisterRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, user)
}

// ConfirmEmail godoc
// @Summary      Confirm an email address
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.ConfirmEmailRequest true "Email and token"
// @Success      200 {object} dto.Response{data=dto.StatusResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/register/confirm [post]
func (h *UserHandler) ConfirmEmail(c *gin.Context) {
	var req identity.ConfirmEmailRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.ConfirmEmail(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.StatusResponse{Status: "confirmed"})
}

// Login godoc
// @Summary      User login
// @Description  Authenticate with email and password
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.LoginRequest true "Login credentials"
// @Success      200 {object} dto.Response{data=identity.LoginResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/login [post]
func (h *UserHandler) Login(c *gin.Context) {
	var req identity.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, result)
}

// Refresh godoc
// @Summary      Refresh access token
// @Description  Exchanges a refresh token for a new token pair. The old refresh token is revoked.
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.RefreshRequest true "Refresh token"
// @Success      200 {object} dto.Response{data=identity.TokenResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/refresh [post]
func (h *UserHandler) Refresh(c *gin.Context) {
	var req identity.RefreshRequest
	if !h.bindJSON(c, &req) {
		return
	}

	tokens, err := h.authService.Refresh(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, tokens)
}

// Logout godoc
// @Summary      Logout
// @Description  Revokes the access token and, when given, the refresh token
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.LogoutRequest false "Refresh token to revoke"
// @Success      200 {object} dto.Response{data=dto.StatusResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/logout [post]
func (h *UserHandler) Logout(c *gin.Context) {
	claims := middleware.GetJWTClaims(c)
	if claims == nil {
		h.Unauthorized(c, "Authentication required")
		return
	}

	var req identity.LogoutRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims, req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.StatusResponse{Status: "logged_out"})
}

// GetDetails godoc
// @Summary      Get account details
// @Tags         user
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} dto.Response{data=identity.UserResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/details [get]
func (h *UserHandler) GetDetails(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	user, err := h.accountService.GetAccount(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// UpdateDetails godoc
// @Summary      Update account details
// @Description  Partial update. A new password is checked against the password policy.
// @Tags         user
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body identity.UpdateAccountRequest true "Fields to change"
// @Success      200 {object} dto.Response{data=identity.UserResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/details [post]
func (h *UserHandler) UpdateDetails(c *gin.Context) {
	userID, ok := h.currentUserID(c)
	if !ok {
		return
	}

	var req identity.UpdateAccountRequest
	if !h.bindJSON(c, &req) {
		return
	}

	user, err := h.accountService.UpdateAccount(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, user)
}

// PasswordReset godoc
// @Summary      Request a password reset
// @Description  Always succeeds so that registered emails cannot be probed
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.PasswordResetRequest true "Account email"
// @Success      200 {object} dto.Response{data=dto.StatusResponse}
// @Router       /user/password_reset [post]
func (h *UserHandler) PasswordReset(c *gin.Context) {
	var req identity.PasswordResetRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.RequestPasswordReset(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.StatusResponse{Status: "sent"})
}

// PasswordResetConfirm godoc
// @Summary      Set a new password with a reset token
// @Tags         user
// @Accept       json
// @Produce      json
// @Param        request body identity.PasswordResetConfirmRequest true "Token and new password"
// @Success      200 {object} dto.Response{data=dto.StatusResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /user/password_reset/confirm [post]
func (h *UserHandler) PasswordResetConfirm(c *gin.Context) {
	var req identity.PasswordResetConfirmRequest
	if !h.bindJSON(c, &req) {
		return
	}

	if err := h.authService.ConfirmPasswordReset(c.Request.Context(), req); err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, dto.StatusResponse{Status: "password_changed"})
}
