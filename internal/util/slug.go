package util

import (
	"strings"
	"unicode"
)

// Slugify lowercases the parts, strips everything but letters and digits, and
// joins the non-empty results with dashes.
func Slugify(parts ...string) string {
	cleaned := make([]string, 0, len(parts))
	for _, part := range parts {
		var b strings.Builder
		for _, r := range strings.ToLower(strings.TrimSpace(part)) {
			switch {
			case unicode.IsLetter(r) || unicode.IsDigit(r):
				b.WriteRune(r)
			case r == ' ' || r == '-' || r == '_':
				b.WriteRune('-')
			}
		}
		s := strings.Trim(b.String(), "-")
		for strings.Contains(s, "--") {
			s = strings.ReplaceAll(s, "--", "-")
		}
		if s != "" {
			cleaned = append(cleaned, s)
		}
	}
	return strings.Join(cleaned, "-")
}
