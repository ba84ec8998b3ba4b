// Package identifier issues the content identifiers documents are addressed by.
package identifier

import (
	"github.com/google/uuid"
)

// Generator produces globally unique content identifiers.
type Generator interface {
	Generate() string
}

// UUIDGenerator returns random (version 4) UUIDs read from crypto/rand.
type UUIDGenerator struct{}

// NewUUIDGenerator returns the default Generator.
func NewUUIDGenerator() UUIDGenerator {
	return UUIDGenerator{}
}

// Generate returns a UUID in canonical text form.
func (UUIDGenerator) Generate() string {
	return uuid.NewString()
}

// Valid reports whether s is a canonical UUID.
func Valid(s string) bool {
	if len(s) != 36 {
		return false
	}
	_, err := uuid.Parse(s)
	return err == nil
}

// Normalize returns the lowercase canonical form of s, which is how
// identifiers are stored. It reports false when s is not a canonical UUID.
func Normalize(s string) (string, bool) {
	if len(s) != 36 {
		return "", false
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return "", false
	}
	return u.String(), true
}
