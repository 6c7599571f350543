package bcrypt

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultCost = 10
)

// HashToken hashes a one-time sign-in code before it is stored.
func HashToken(token string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(token), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash token: %v", err)
	}
	return string(hashedBytes), nil
}

// CompareToken checks a plain code against its stored hash.
func CompareToken(hashedToken, token string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hashedToken), []byte(token))
	if err != nil {
		return fmt.Errorf("token comparison failed: %v", err)
	}
	return nil
}
