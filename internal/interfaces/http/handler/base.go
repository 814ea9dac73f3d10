package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	importapp "github.com/shop/backend/internal/application/import"
	"github.com/shop/backend/internal/domain/shared"
	"github.com/shop/backend/internal/infrastructure/logger"
	"github.com/shop/backend/internal/interfaces/http/dto"
	"github.com/shop/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler carries the response helpers every handler embeds.
type BaseHandler struct{}

func requestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// currentUserID writes a 401 and reports false on anonymous requests.
func (h *BaseHandler) currentUserID(c *gin.Context) (int64, bool) {
	if id := middleware.GetJWTUserID(c); id != 0 {
		return id, true
	}
	h.Unauthorized(c, "Authentication required")
	return 0, false
}

// bindJSON, bind and bindQuery answer with a validation error themselves;
// callers only check the result.
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	return h.checkBind(c, c.ShouldBindJSON(req))
}

func (h *BaseHandler) bind(c *gin.Context, req any) bool {
	return h.checkBind(c, c.ShouldBind(req))
}

func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	return h.checkBind(c, c.ShouldBindQuery(req))
}

func (h *BaseHandler) checkBind(c *gin.Context, err error) bool {
	if err != nil {
		middleware.HandleValidationError(c, err)
	}
	return err == nil
}

func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) SuccessList(c *gin.Context, items any, total int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithTotal(items, int64(total)))
}

func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

func (h *BaseHandler) Error(c *gin.Context, status int, code, message string) {
	c.JSON(status, dto.NewErrorResponseWithRequestID(code, message, requestID(c)))
}

func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// HandleError renders err. Rejected price lists list their bad rows,
// domain errors keep their message, and anything else is logged and
// reported as ERR_INTERNAL without detail.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var rejected *importapp.ValidationError
	if errors.As(err, &rejected) {
		code := rejected.Domain.Code
		c.JSON(dto.GetHTTPStatus(code), dto.NewImportErrorResponse(
			code, rejected.Domain.Message, requestID(c), rejected.Rows, rejected.Truncated))
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message := domainErr.Message
		var row *importapp.RowFailure
		if errors.As(err, &row) {
			message = row.Error()
		}
		code := dto.NormalizeErrorCode(domainErr.Code)
		h.Error(c, dto.GetHTTPStatus(code), code, message)
		return
	}

	logger.FromContext(c.Request.Context()).Error("unhandled request error",
		zap.String("route", c.FullPath()), zap.Error(err))
	_ = c.Error(err)
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, "An unexpected error occurred")
}
