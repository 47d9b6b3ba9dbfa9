package auth

import (
	"crypto/sha256"

	"golang.org/x/crypto/bcrypt"
)

var _ PasswordHasher = BcryptHasher{}

// Bcrypt hasher, used by default for passwords and refresh tokens
// Input is pre-hashed with sha256: bcrypt reads only first 72 bytes,
// and JWT refresh tokens are longer and share the same header
type BcryptHasher struct{}

func (h BcryptHasher) Hash(password string) (string, error) {
	sum := sha256.Sum256([]byte(password))
	hash, err := bcrypt.GenerateFromPassword(sum[:], bcrypt.DefaultCost)
	return string(hash), err
}

func (h BcryptHasher) Compare(hashedPassword string, password string) error {
	sum := sha256.Sum256([]byte(password))
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), sum[:])
}
