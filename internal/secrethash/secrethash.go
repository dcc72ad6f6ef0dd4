// Package secrethash hashes client secrets for storage. The original
// source stores an unsalted SHA-256 hex digest for compatibility with
// the existing datastore; this package preserves that scheme.
package secrethash

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// Hash returns the hex-encoded SHA-256 digest of the UTF-8 bytes of
// plaintext.
func Hash(plaintext string) string {
	sum := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether plaintext hashes to hash, using a
// constant-time comparison so secret verification time does not leak
// information about how many leading hex characters matched.
func Matches(plaintext, hash string) bool {
	computed := Hash(plaintext)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}
