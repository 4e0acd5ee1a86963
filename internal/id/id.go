// Package id generates opaque identifiers for tracked records.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// BookPrefix is the prefix used for book identifiers.
const BookPrefix = "book"

// Func produces a unique ID for the given prefix.
// Services accept one so tests can substitute a deterministic sequence.
type Func func(prefix string) (string, error)

// Generate creates a prefixed unique ID using NanoID.
// Format: prefix-nanoid (e.g., "book-V1StGXR8_Z5jdHi6B-myT").
func Generate(prefix string) (string, error) {
	id, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + id, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
// Only use it where failure should crash the program (seeding, tests).
func MustGenerate(prefix string) string {
	id, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return id
}

// Sequence returns a Func yielding prefix-1, prefix-2, ... in order.
func Sequence() Func {
	n := 0
	return func(prefix string) (string, error) {
		n++
		return fmt.Sprintf("%s-%d", prefix, n), nil
	}
}

// HasPrefix reports whether id was generated with prefix.
// Legacy records carry bare timestamp IDs, so this is informational only.
func HasPrefix(id, prefix string) bool {
	return strings.HasPrefix(id, prefix+"-")
}
