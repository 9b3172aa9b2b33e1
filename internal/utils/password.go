package utils

import (
	apperr "dcip/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword bcrypts a password, code or token.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", apperr.Internal("failed to hash password", err)
	}
	return string(hash), nil
}

// CheckPassword compares a bcrypt hash with its candidate plain text.
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
