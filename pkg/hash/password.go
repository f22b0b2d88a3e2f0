package hash

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const cost = 12

// Hash returns the bcrypt digest of a password. The stored form is one-way;
// the plaintext is never persisted anywhere.
func Hash(password string) (string, error) {
	if len(password) < 8 {
		return "", fmt.Errorf("password must be at least 8 characters")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	return string(digest), nil
}

func Compare(hashedPassword, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
}
