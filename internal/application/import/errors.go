package importapp

import (
	"errors"
	"fmt"

	"github.com/shop/backend/internal/domain/shared"
	feedimport "github.com/shop/backend/internal/infrastructure/import"
)

// ValidationError reports feed rows that failed parsing or validation.
// It unwraps to a DomainError so it maps onto the common error envelope.
type ValidationError struct {
	Domain    *shared.DomainError
	Rows      []feedimport.RowError
	Total     int
	Truncated bool
}

func (e *ValidationError) Error() string {
	return e.Domain.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Domain
}

// RowFailure is a write error tied to a feed row. The whole import is rolled back.
type RowFailure struct {
	Row int
	Err error
}

func (e *RowFailure) Error() string {
	return fmt.Sprintf("row %d: %v", e.Row, e.Err)
}

func (e *RowFailure) Unwrap() error {
	return e.Err
}

// failedRow returns the feed row an error is attributed to, or zero
func failedRow(err error) int {
	var rf *RowFailure
	if errors.As(err, &rf) {
		return rf.Row
	}
	var ve *ValidationError
	if errors.As(err, &ve) && len(ve.Rows) > 0 {
		return ve.Rows[0].Row
	}
	return 0
}

// translateParseError maps parser errors onto domain errors with import codes
func translateParseError(err error) error {
	var collection *feedimport.ErrorCollection
	if errors.As(err, &collection) {
		return &ValidationError{
			Domain: shared.NewDomainError(feedimport.ErrCodeImportValidation,
				fmt.Sprintf("Price list has %d invalid row(s), first at row %d", collection.TotalCount(), collection.FirstRow())),
			Rows:      collection.Errors(),
			Total:     collection.TotalCount(),
			Truncated: collection.IsTruncated(),
		}
	}

	var rowErr feedimport.RowError
	if errors.As(err, &rowErr) {
		return &ValidationError{
			Domain: shared.NewDomainError(rowErr.Code, rowErr.Error()),
			Rows:   []feedimport.RowError{rowErr},
			Total:  1,
		}
	}

	code := feedimport.ErrCodeImportInvalidFile
	switch {
	case errors.Is(err, feedimport.ErrUnsupportedFormat):
		code = feedimport.ErrCodeImportUnsupportedFormat
	case errors.Is(err, feedimport.ErrEmptyFile):
		code = feedimport.ErrCodeImportEmptyFile
	case errors.Is(err, feedimport.ErrFileTooLarge):
		code = feedimport.ErrCodeImportFileTooLarge
	case errors.Is(err, feedimport.ErrInvalidEncoding):
		code = feedimport.ErrCodeImportInvalidEncoding
	case errors.Is(err, feedimport.ErrUnsupportedEncoding):
		code = feedimport.ErrCodeImportUnsupportedEncoding
	case errors.Is(err, feedimport.ErrMissingHeader):
		code = feedimport.ErrCodeImportMissingHeader
	}
	return shared.NewDomainError(code, err.Error())
}
