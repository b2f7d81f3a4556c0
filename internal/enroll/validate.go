package enroll

import (
	"regexp"
	"strings"
	"unicode"
)

// Manual phone input may contain digits, spaces, +, -, (, ) only.
var phoneChars = regexp.MustCompile(`^[\d\s+\-()]+$`)

const minPhoneDigits = 10

// NormalizeName collapses whitespace and requires at least a first name and
// a surname. Returns "First Rest..." and true on success.
func NormalizeName(input string) (string, bool) {
	parts := strings.Fields(input)
	if len(parts) < 2 {
		return "", false
	}
	return parts[0] + " " + strings.Join(parts[1:], " "), true
}

// ValidPhone checks a manually typed phone number: allowed characters only,
// with at least ten digits. The value is stored verbatim; the digit count is
// the only thing validated.
func ValidPhone(input string) bool {
	s := strings.TrimSpace(input)
	if s == "" || !phoneChars.MatchString(s) {
		return false
	}
	return countDigits(s) >= minPhoneDigits
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			n++
		}
	}
	return n
}
