// Package normalize cleans user-entered text before it reaches the registry.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Text trims, collapses internal whitespace runs to a single space, drops
// control characters and composes the result to Unicode NFC.
// "  The   Left Hand\tof Darkness " -> "The Left Hand of Darkness".
func Text(raw string) string {
	if raw == "" {
		return ""
	}

	s := norm.NFC.String(sanitizeString(raw))
	return strings.Join(strings.Fields(s), " ")
}

// Fold returns a case- and accent-insensitive form used for matching.
// "Émile Zola" -> "emile zola".
func Fold(raw string) string {
	s := norm.NFKD.String(Text(raw))
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Mn, r) {
			return -1
		}
		return r
	}, s)
	return strings.ToLower(s)
}

// sanitizeString removes null bytes and other control characters except
// whitespace, which Text collapses afterwards.
func sanitizeString(s string) string {
	return strings.Map(func(r rune) rune {
		if r == 0 {
			return -1
		}
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
