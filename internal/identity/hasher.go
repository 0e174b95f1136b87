package identity

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the work factor applied to new secret hashes.
const DefaultBcryptCost = 10

// maxSecretLen is the number of secret bytes bcrypt consumes. Longer input is
// cut here so hashes stay compatible with ones produced by bcryptjs.
const maxSecretLen = 72

// BcryptHasher hashes and verifies identity secrets.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher creates a BcryptHasher. A zero cost selects DefaultBcryptCost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost == 0 {
		cost = DefaultBcryptCost
	}
	return &BcryptHasher{cost: cost}
}

// Hash returns a salted bcrypt hash of secret. Two calls with the same input
// yield different hashes.
func (h *BcryptHasher) Hash(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword(clip(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(hash), nil
}

// Verify reports whether secret matches hash.
func (h *BcryptHasher) Verify(secret, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), clip(secret)) == nil
}

func clip(secret string) []byte {
	b := []byte(secret)
	if len(b) > maxSecretLen {
		b = b[:maxSecretLen]
	}
	return b
}
