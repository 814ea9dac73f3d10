package dto

import (
	"net/http"

	feedimport "github.com/shop/backend/internal/infrastructure/import"
)

// Response error codes, always ERR_ prefixed.
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"

	ErrCodeValidation   = "ERR_VALIDATION"
	ErrCodeBadRequest   = "ERR_BAD_REQUEST"
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	ErrCodeInvalidJSON  = "ERR_INVALID_JSON"
	ErrCodeFileTooLarge = "ERR_FILE_TOO_LARGE"

	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
	// ErrCodeTokenRevoked covers logged-out and already rotated tokens.
	ErrCodeTokenRevoked = "ERR_TOKEN_REVOKED"

	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	// ErrCodeInvalidState rejects an action the order's current state forbids.
	ErrCodeInvalidState = "ERR_INVALID_STATE"

	// ErrCodeFeedUnavailable means a partner feed URL could not be fetched.
	ErrCodeFeedUnavailable = "ERR_FEED_UNAVAILABLE"
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
)

// codesByStatus lists every code that does not map to 500.
var codesByStatus = map[int][]string{
	http.StatusBadRequest: {
		ErrCodeValidation, ErrCodeBadRequest, ErrCodeInvalidInput, ErrCodeInvalidJSON,
		feedimport.ErrCodeImportUnsupportedFormat,
		feedimport.ErrCodeImportInvalidFile,
		feedimport.ErrCodeImportEmptyFile,
		feedimport.ErrCodeImportInvalidEncoding,
		feedimport.ErrCodeImportUnsupportedEncoding,
		feedimport.ErrCodeImportCSVParsing,
		feedimport.ErrCodeImportMissingHeader,
		feedimport.ErrCodeImportMalformedRow,
		feedimport.ErrCodeImportValidation,
		feedimport.ErrCodeImportRequiredField,
		feedimport.ErrCodeImportInvalidType,
		feedimport.ErrCodeImportInvalidLength,
		feedimport.ErrCodeImportInvalidRange,
	},
	http.StatusUnauthorized:          {ErrCodeUnauthorized, ErrCodeTokenExpired, ErrCodeTokenInvalid, ErrCodeTokenRevoked},
	http.StatusForbidden:             {ErrCodeForbidden},
	http.StatusNotFound:              {ErrCodeNotFound},
	http.StatusConflict:              {ErrCodeAlreadyExists},
	http.StatusRequestEntityTooLarge: {ErrCodeFileTooLarge, feedimport.ErrCodeImportFileTooLarge},
	http.StatusUnprocessableEntity:   {ErrCodeInvalidState},
	http.StatusTooManyRequests:       {ErrCodeRateLimited},
	http.StatusBadGateway:            {ErrCodeFeedUnavailable},
}

var statusByCode = func() map[string]int {
	m := make(map[string]int)
	for status, codes := range codesByStatus {
		for _, code := range codes {
			m[code] = status
		}
	}
	return m
}()

// GetHTTPStatus maps a response code to its status. Unknown codes are 500.
func GetHTTPStatus(code string) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// domainCodes translates the bare codes carried by shared.DomainError.
var domainCodes = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"ALREADY_EXISTS":   ErrCodeAlreadyExists,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_STATE":    ErrCodeInvalidState,
	"UNAUTHORIZED":     ErrCodeUnauthorized,
	"FORBIDDEN":        ErrCodeForbidden,
	"TOKEN_EXPIRED":    ErrCodeTokenExpired,
	"TOKEN_INVALID":    ErrCodeTokenInvalid,
	"TOKEN_REVOKED":    ErrCodeTokenRevoked,
	"FEED_UNAVAILABLE": ErrCodeFeedUnavailable,
	"VALIDATION_ERROR": ErrCodeValidation,
	"BAD_REQUEST":      ErrCodeBadRequest,
	"INTERNAL_ERROR":   ErrCodeInternal,
}

// NormalizeErrorCode returns the response form of a domain code. Anything
// it does not recognise passes through unchanged.
func NormalizeErrorCode(code string) string {
	if mapped, ok := domainCodes[code]; ok {
		return mapped
	}
	return code
}
