package invoice

import (
	"strings"
	"unicode"
)

// sanitizeText makes free-form user input safe for document rendering: it
// coerces the value to valid UTF-8 and strips control characters. Tabs and
// newlines are replaced with a single space so multi-line notes stay legible.
func sanitizeText(s string) string {
	s = strings.ToValidUTF8(s, "")

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t' || r == '\r':
			b.WriteRune(' ')
		case unicode.IsControl(r):
			// dropped
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}
