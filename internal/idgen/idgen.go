// Package idgen generates time-ordered, lexicographically sortable
// identifiers with a type prefix, e.g. "cli_01h2xz3k9mq8f2n7".
package idgen

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

const (
	minRandomLength = 6
	maxRandomLength = 16
)

// New returns a prefixed identifier of the form "<prefix>_<10-char
// timestamp><randomLength-char random>", both segments taken from a
// freshly generated ULID and lowercased. The first 10 characters of a
// ULID encode its millisecond timestamp, so the parts after the prefix
// of two IDs generated in different milliseconds sort in creation
// order. IDs generated within the same millisecond have no guaranteed
// order, since only the tail of the ULID's random part is kept.
func New(prefix string, randomLength int) (string, error) {
	if randomLength < minRandomLength || randomLength > maxRandomLength {
		return "", fmt.Errorf("idgen: random_length must be in [%d, %d], got %d", minRandomLength, maxRandomLength, randomLength)
	}

	raw := ulid.Make().String()
	lower := toLower(raw)
	id := lower[:10] + lower[len(lower)-randomLength:]

	return prefix + "_" + id, nil
}

// MustNew is New but panics on error. Only safe to use with a constant,
// already-validated randomLength.
func MustNew(prefix string, randomLength int) string {
	id, err := New(prefix, randomLength)
	if err != nil {
		panic(err)
	}
	return id
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
