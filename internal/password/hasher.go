// Package password wraps the one-way credential hashing primitive used by
// the credential store at write time and the token issuer at verify time.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hasher produces and verifies salted bcrypt hashes with a fixed cost
// factor. The cost is process-wide configuration, read-only after startup.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher with the given cost. Costs outside bcrypt's
// supported range fall back to the library default.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash derives a salted, one-way hash of plaintext. A failure is reported
// to the caller; there is no weaker fallback.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether plaintext matches hash. The comparison does not
// leak where a mismatch occurs.
func (h *Hasher) Verify(plaintext, hash string) bool {
	return Verify(plaintext, hash)
}

// Verify reports whether plaintext matches a previously produced hash. The
// cost factor is encoded in the hash, so verification needs no Hasher.
func Verify(plaintext, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext)) == nil
}
