package chat

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{7,14}$`)

// NormalizePhone strips whitespace and keeps an optional leading "+".
func NormalizePhone(phone string) string {
	var b strings.Builder
	for i, ch := range phone {
		if ch == '+' && i == 0 {
			b.WriteRune(ch)
			continue
		}
		if ch >= '0' && ch <= '9' {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

// IsValidPhone checks for an international number: optional leading "+",
// first digit 1-9, 8-15 digits total.
func IsValidPhone(phone string) bool {
	return phonePattern.MatchString(NormalizePhone(phone))
}

// IsValidName checks the trimmed length window for person names.
// The window counts characters, not bytes.
func IsValidName(name string) bool {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	return n >= 2 && n <= 50
}
