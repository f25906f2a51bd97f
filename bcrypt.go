package identity

import (
	"crypto/rand"
	"encoding/base64"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the minimum accepted plaintext length
const MinPasswordLength = 8

// tempPasswordBytes is the entropy fed into generated one-time credentials
const tempPasswordBytes = 12

// HashPassword will generate a password hash
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", goerrors.New("password must not be empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	h, err := bcrypt.GenerateFromPassword([]byte(password), passwordHashCost())
	return string(h), err
}

// ComparePasswordAndHash will validate the given cleartext
// password matches the hashed password
func ComparePasswordAndHash(password, hash string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidCredentials
		}
		return err
	}
	return nil
}

// GenerateTemporaryPassword returns a URL-safe random one-time credential.
// The plaintext is only ever held in memory; callers hash it before storing.
func GenerateTemporaryPassword() (string, error) {
	buf := make([]byte, tempPasswordBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate temporary password")
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// ValidatePasswordPolicy enforces the platform password policy
func ValidatePasswordPolicy(password string) error {
	if len(password) < MinPasswordLength {
		return goerrors.New("password must be at least 8 characters", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}
	return nil
}
