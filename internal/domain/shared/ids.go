package shared

import (
	"strconv"
	"strings"
)

// ParseIDList parses a comma separated list of ids such as "1,2,3".
// Segments that are not made of decimal digits only are dropped.
// An input with no usable segment is ErrInvalidInput.
func ParseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, segment := range strings.Split(raw, ",") {
		if !isDigits(segment) {
			continue
		}
		id, err := strconv.ParseInt(segment, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, NewDomainError("INVALID_INPUT", "No valid ids given")
	}
	return ids, nil
}

// IsDigits reports whether s is a non-empty run of ASCII digits
func IsDigits(s string) bool {
	return isDigits(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
