// Package common holds request field types shared by application DTOs.
package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/shop/backend/internal/domain/shared"
)

// FlexibleList decodes either a JSON array or a string holding a JSON array.
// Form-encoded clients send lists the second way.
type FlexibleList[T any] []T

// UnmarshalJSON implements json.Unmarshaler
func (l *FlexibleList[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var inner string
		if err := json.Unmarshal(data, &inner); err != nil {
			return err
		}
		data = []byte(inner)
	}

	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("items must be a JSON array: %w", err)
	}
	*l = items
	return nil
}

// FlexibleID decodes an id given as a JSON integer or as a string of digits
type FlexibleID int64

// UnmarshalJSON implements json.Unmarshaler
func (id *FlexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if !shared.IsDigits(s) {
			return fmt.Errorf("id %q is not a number", s)
		}
		data = []byte(s)
	}
	v, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return errors.New("id must be an integer")
	}
	*id = FlexibleID(v)
	return nil
}

// Int64 returns the id as int64
func (id FlexibleID) Int64() int64 {
	return int64(id)
}

// StrictInt reports the value of a raw JSON field when it is an integer literal.
// Strings, floats and missing fields are not integers.
func StrictInt(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
