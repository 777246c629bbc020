package search

import (
	"crypto/sha256"
	"strings"

	"github.com/mr-tron/base58"
)

// Normalize lowercases query and collapses runs of whitespace.
func Normalize(query string) string {
	return strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// Key is the content address of a query: base58 of the SHA-256 of its
// normalized form.
func Key(query string) string {
	sum := sha256.Sum256([]byte(Normalize(query)))
	return base58.Encode(sum[:])
}
