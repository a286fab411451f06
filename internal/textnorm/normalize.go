// Package textnorm canonicalizes free text for comparison and fingerprinting.
package textnorm

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalize lowercases, strips diacritics, replaces every non-alphanumeric
// rune with a space and collapses whitespace. Idempotent; empty or
// whitespace-only input yields "".
func Normalize(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}

	lower := strings.ToLower(trimmed)

	var stripped strings.Builder
	stripped.Grow(len(lower))
	for _, r := range norm.NFD.String(lower) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		stripped.WriteRune(r)
	}

	var cleaned strings.Builder
	cleaned.Grow(stripped.Len())
	for _, r := range norm.NFC.String(stripped.String()) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(cleaned.String()), " ")
}
