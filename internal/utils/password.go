package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes and verifies passwords with bcrypt at a fixed cost.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher; costs below 10 are raised to 10.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < 10 {
		cost = 10
	}
	return BcryptHasher{Cost: cost}
}

// Hash returns the bcrypt digest of plain.
func (h BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares a bcrypt digest with a plain password.  A malformed
// digest simply fails verification.
func (h BcryptHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
