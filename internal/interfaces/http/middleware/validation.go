package middleware

import (
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shop/backend/internal/interfaces/http/dto"
)

// SetupValidator makes gin's validator report fields by their json name,
// or their form name for query bindings.
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(fld.Tag.Get(tag), ",")
			switch name {
			case "-":
				return ""
			case "":
				continue
			default:
				return name
			}
		}
		return ""
	})
}

// HandleValidationError writes a 400 for a failed ShouldBind call.
func HandleValidationError(c *gin.Context, err error) {
	requestID := c.GetString(RequestIDKey)
	if requestID == "" {
		requestID = c.GetHeader(RequestIDHeader)
	}
	c.JSON(http.StatusBadRequest, FormatValidationErrors(err, requestID))
}

// FormatValidationErrors lists each rejected field. Anything that is not a
// validator error (broken JSON, wrong types, oversized body) is reported as
// ERR_INVALID_JSON.
func FormatValidationErrors(err error, requestID string) dto.Response {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return dto.NewErrorResponseWithRequestID(dto.ErrCodeInvalidJSON, "Request body is invalid: "+err.Error(), requestID)
	}

	details := make([]dto.ValidationDetail, len(fieldErrs))
	for i, fe := range fieldErrs {
		details[i] = dto.ValidationDetail{Field: fe.Field(), Message: getValidationMessage(fe), Tag: fe.Tag()}
	}
	return dto.NewValidationErrorResponse("Request validation failed", requestID, details)
}

var fixedMessages = map[string]string{
	"required": "This field is required",
	"email":    "Invalid email format",
	"url":      "Invalid URL format",
	"numeric":  "Must be numeric",
	"alphanum": "Must be alphanumeric",
	"alpha":    "Must contain only letters",
}

var boundPrefixes = map[string]string{
	"oneof": "Must be one of: ",
	"gte":   "Must be greater than or equal to ",
	"lte":   "Must be less than or equal to ",
	"gt":    "Must be greater than ",
	"lt":    "Must be less than ",
}

func getValidationMessage(fe validator.FieldError) string {
	if msg, ok := fixedMessages[fe.Tag()]; ok {
		return msg
	}
	if prefix, ok := boundPrefixes[fe.Tag()]; ok {
		return prefix + fe.Param()
	}

	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "min":
		return "Must be at least " + fe.Param() + unit
	case "max":
		return "Must be at most " + fe.Param() + unit
	case "len":
		return "Must be exactly " + fe.Param() + unit
	}
	return "Invalid value"
}
