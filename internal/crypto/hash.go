package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// bcrypt rejects passwords longer than 72 bytes; input validation enforces
// the same ceiling before a password reaches this package.
const hashCost = 10

// HashPassword digests a plaintext password. The result is safe to persist;
// the plaintext never is.
func HashPassword(password string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(password), hashCost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// VerifyPassword reports whether password matches the stored digest.
func VerifyPassword(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}
