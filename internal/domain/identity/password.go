package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shop/backend/internal/domain/shared"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128

	// similarity ratio at or above which a password is considered derived from a user attribute
	maxAttributeSimilarity = 0.7
)

var commonPasswords = map[string]struct{}{}

func init() {
	for _, p := range strings.Fields(`
		password password1 password12 password123 passw0rd p@ssw0rd 12345678 123456789
		1234567890 11111111 00000000 87654321 12341234 qwerty123 qwertyuiop qwerty12
		1q2w3e4r 1q2w3e4r5t 1qaz2wsx zaq12wsx iloveyou sunshine princess football
		baseball welcome welcome1 abc12345 abcd1234 letmein1 trustno1 superman batman123
		starwars dragon123 monkey123 master123 shadow123 michael1 jennifer computer
		internet whatever qazwsxedc asdfghjkl zxcvbnm1 changeme administrator admin123
		`) {
		commonPasswords[p] = struct{}{}
	}
}

// ValidatePassword checks a candidate password against the account's attributes.
// It rejects short, all-digit and common passwords and passwords similar to
// the email local part or the user's names.
func ValidatePassword(password, email string, attributes ...string) error {
	n := utf8.RuneCountInString(password)
	if n < MinPasswordLength {
		return shared.NewDomainError("INVALID_INPUT", "Password must be at least 8 characters")
	}
	if n > MaxPasswordLength {
		return shared.NewDomainError("INVALID_INPUT", "Password cannot exceed 128 characters")
	}
	if isAllDigits(password) {
		return shared.NewDomainError("INVALID_INPUT", "Password cannot be entirely numeric")
	}

	lower := strings.ToLower(password)
	if _, ok := commonPasswords[lower]; ok {
		return shared.NewDomainError("INVALID_INPUT", "Password is too common")
	}

	candidates := append([]string{email}, attributes...)
	if at := strings.LastIndex(email, "@"); at > 0 {
		candidates = append(candidates, email[:at])
	}
	for _, attr := range candidates {
		attr = strings.ToLower(strings.TrimSpace(attr))
		if attr == "" {
			continue
		}
		if similarity(lower, attr) >= maxAttributeSimilarity {
			return shared.NewDomainError("INVALID_INPUT", "Password is too similar to your personal information")
		}
	}
	return nil
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// similarity returns 2*M/T where M is the length of the longest common
// substring and T the total rune count of both strings.
func similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	total := len(ra) + len(rb)
	if total == 0 {
		return 0
	}

	longest := 0
	prev := make([]int, len(rb)+1)
	cur := make([]int, len(rb)+1)
	for i := 1; i <= len(ra); i++ {
		for j := 1; j <= len(rb); j++ {
			if ra[i-1] == rb[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > longest {
					longest = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return 2 * float64(longest) / float64(total)
}
