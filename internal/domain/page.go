package domain

import (
	"math"
	"strings"
)

// ClampPage limits page to [0, totalPages]. Out-of-range input is expected
// while a user is typing and is never an error.
func ClampPage(page, totalPages int) int {
	if totalPages < 0 {
		totalPages = 0
	}
	return min(max(page, 0), totalPages)
}

// CoercePage converts raw page-field input to an integer permissively:
// leading whitespace is skipped, an optional sign and the leading run of
// digits are read, and anything unparseable becomes 0.
// "42" -> 42, " 17 pages" -> 17, "abc" -> 0, "" -> 0, "-3" -> -3.
func CoercePage(raw string) int {
	n, ok := leadingInt(raw)
	if !ok {
		return 0
	}
	return n
}

// ParseTotalPages reads a total page count with the same leading-integer
// rule as CoercePage but reports whether a positive count was found.
func ParseTotalPages(raw string) (int, bool) {
	n, ok := leadingInt(raw)
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

// leadingInt parses an optional sign followed by at least one digit at the
// start of s (after leading whitespace). Values saturate at MaxInt32.
func leadingInt(s string) (int, bool) {
	s = strings.TrimLeft(s, " \t\r\n")
	if s == "" {
		return 0, false
	}

	sign := 1
	switch s[0] {
	case '-':
		sign = -1
		s = s[1:]
	case '+':
		s = s[1:]
	}

	n, digits := 0, 0
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n < math.MaxInt32 {
			n = n*10 + int(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return 0, false
	}

	return sign * min(n, math.MaxInt32), true
}
