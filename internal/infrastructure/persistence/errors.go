package persistence

import (
	"errors"
	"strings"

	"github.com/shop/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// uniqueViolationMarkers match duplicate-key messages from connections
// opened without TranslateError.
var uniqueViolationMarkers = []string{
	"SQLSTATE 23505",
	"duplicate key value",
	"UNIQUE constraint failed",
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	for _, marker := range uniqueViolationMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// translateError maps gorm errors onto the shared domain errors.
func translateError(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.ErrNotFound
	case isUniqueViolation(err):
		return shared.ErrAlreadyExists
	}
	return err
}
