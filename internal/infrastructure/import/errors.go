package feedimport

import (
	"errors"
	"fmt"
	"strings"
)

// Error codes carried by RowError and by import failures surfaced over HTTP.
const (
	ErrCodeImportUnsupportedFormat   = "ERR_IMPORT_UNSUPPORTED_FORMAT"
	ErrCodeImportInvalidFile         = "ERR_IMPORT_INVALID_FILE"
	ErrCodeImportEmptyFile           = "ERR_IMPORT_EMPTY_FILE"
	ErrCodeImportFileTooLarge        = "ERR_IMPORT_FILE_TOO_LARGE"
	ErrCodeImportInvalidEncoding     = "ERR_IMPORT_INVALID_ENCODING"
	ErrCodeImportUnsupportedEncoding = "ERR_IMPORT_UNSUPPORTED_ENCODING"
	ErrCodeImportCSVParsing          = "ERR_IMPORT_CSV_PARSING"
	ErrCodeImportMissingHeader       = "ERR_IMPORT_MISSING_HEADER"
	ErrCodeImportMalformedRow        = "ERR_IMPORT_MALFORMED_ROW"
	ErrCodeImportValidation          = "ERR_IMPORT_VALIDATION"
	ErrCodeImportRequiredField       = "ERR_IMPORT_REQUIRED_FIELD"
	ErrCodeImportInvalidType         = "ERR_IMPORT_INVALID_TYPE"
	ErrCodeImportInvalidLength       = "ERR_IMPORT_INVALID_LENGTH"
	ErrCodeImportInvalidRange        = "ERR_IMPORT_INVALID_RANGE"
)

var (
	ErrUnsupportedFormat   = errors.New("unsupported feed format, expected .yaml, .yml, .csv or .json")
	ErrUnsupportedEncoding = errors.New("unsupported feed encoding")
	ErrEmptyFile           = errors.New("feed file is empty")
	ErrInvalidEncoding     = errors.New("invalid file encoding")
	ErrMissingHeader       = errors.New("CSV file missing header row")
	ErrFileTooLarge        = errors.New("file exceeds maximum allowed size")
)

const defaultMaxRowErrors = 100

// RowError pins a problem to one record of a feed. Row is the CSV line
// number, or the 1-based position in the goods list for YAML and JSON.
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

func (e RowError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("row %d: %s", e.Row, e.Message)
	}
	return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
}

func NewRowError(row int, column, code, message string) RowError {
	return RowError{Row: row, Column: column, Code: code, Message: message}
}

func NewRowErrorWithValue(row int, column, code, message, value string) RowError {
	e := NewRowError(row, column, code, message)
	e.Value = value
	return e
}

// ErrorCollection keeps the first few row errors and counts the rest.
// A non-empty collection is usable as an error through Err.
type ErrorCollection struct {
	kept  []RowError
	limit int
	seen  int
}

// NewErrorCollection keeps at most limit errors; non-positive means 100.
func NewErrorCollection(limit int) *ErrorCollection {
	if limit <= 0 {
		limit = defaultMaxRowErrors
	}
	return &ErrorCollection{limit: limit}
}

func (ec *ErrorCollection) Add(err RowError) {
	ec.seen++
	if len(ec.kept) < ec.limit {
		ec.kept = append(ec.kept, err)
	}
}

func (ec *ErrorCollection) AddRequiredError(row int, column string) {
	ec.Add(NewRowError(row, column, ErrCodeImportRequiredField, "field '"+column+"' is required"))
}

func (ec *ErrorCollection) AddTypeError(row int, column, expectedType, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportInvalidType, "expected "+expectedType, value))
}

func (ec *ErrorCollection) AddLengthError(row int, column string, maxLen int) {
	ec.Add(NewRowError(row, column, ErrCodeImportInvalidLength, fmt.Sprintf("length must be at most %d", maxLen)))
}

func (ec *ErrorCollection) AddRangeError(row int, column, min, value string) {
	ec.Add(NewRowErrorWithValue(row, column, ErrCodeImportInvalidRange, "value must be at least "+min, value))
}

func (ec *ErrorCollection) Errors() []RowError { return ec.kept }

// Count is the number of kept errors; TotalCount includes dropped ones.
func (ec *ErrorCollection) Count() int      { return len(ec.kept) }
func (ec *ErrorCollection) TotalCount() int { return ec.seen }
func (ec *ErrorCollection) HasErrors() bool { return ec.seen > 0 }

func (ec *ErrorCollection) IsTruncated() bool { return ec.seen > ec.limit }

// FirstRow is the row of the earliest kept error, zero when there is none.
func (ec *ErrorCollection) FirstRow() int {
	if len(ec.kept) == 0 {
		return 0
	}
	return ec.kept[0].Row
}

func (ec *ErrorCollection) Err() error {
	if ec.seen == 0 {
		return nil
	}
	return ec
}

func (ec *ErrorCollection) Error() string { return ec.String() }

func (ec *ErrorCollection) String() string {
	if ec.seen == 0 {
		return "no errors"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d error(s) found", ec.seen)
	if ec.IsTruncated() {
		fmt.Fprintf(&sb, " (showing first %d)", ec.limit)
	}
	sb.WriteString(":\n")
	for _, e := range ec.kept {
		fmt.Fprintf(&sb, "  - %s\n", e.Error())
	}
	return sb.String()
}
