package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"

	goerrors "github.com/goliatone/go-errors"
	"golang.org/x/crypto/nacl/secretbox"
)

const sealNonceSize = 24

// PasswordSealer seals a pending password for deferred one-time redemption.
// Sealing is authenticated encryption, not encoding: a tampered blob fails
// to open.
type PasswordSealer struct {
	key [32]byte
}

// NewPasswordSealer derives a sealer from the given secret
func NewPasswordSealer(secret string) (*PasswordSealer, error) {
	if secret == "" {
		return nil, goerrors.New("sealer secret must not be empty", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	s := &PasswordSealer{}
	s.key = sha256.Sum256([]byte(secret))
	return s, nil
}

// Seal encrypts the plaintext into an opaque base64url blob
func (s *PasswordSealer) Seal(plaintext string) (string, error) {
	var nonce [sealNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to generate seal nonce")
	}

	sealed := secretbox.Seal(nonce[:], []byte(plaintext), &nonce, &s.key)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Unseal recovers the plaintext from a sealed blob
func (s *PasswordSealer) Unseal(blob string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(blob)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryValidation, "malformed pending password blob")
	}

	if len(raw) <= sealNonceSize {
		return "", goerrors.New("pending password blob is truncated", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	var nonce [sealNonceSize]byte
	copy(nonce[:], raw[:sealNonceSize])

	plaintext, ok := secretbox.Open(nil, raw[sealNonceSize:], &nonce, &s.key)
	if !ok {
		return "", goerrors.New("pending password blob failed authentication", goerrors.CategoryValidation).
			WithCode(goerrors.CodeBadRequest)
	}

	return string(plaintext), nil
}
