package key

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// Normalize cleans a term for identity derivation. It trims
// whitespace, lowercases, and normalizes line endings so that
// cosmetic edits in the source file do not produce a new card.
func Normalize(term string) string {
	t := strings.ToLower(term)
	t = strings.TrimSpace(t)
	t = strings.ReplaceAll(t, "\r\n", "\n")
	return t
}

// Derive returns the card key for a term: the SHA-256 hash of the
// normalized term as a hex string. The definition is deliberately
// excluded so that editing a definition keeps the card's history.
func Derive(term string) string {
	normalized := Normalize(term)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
