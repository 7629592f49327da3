// Package auth issues and checks studio access keys. A key is shown to the
// player once at creation; only its bcrypt hash is stored.
package auth

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const keyPrefix = "sk_"

var ErrInvalidKey = errors.New("invalid studio key")

// NewKey returns a fresh random access key.
func NewKey() string {
	return keyPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

func HashKey(key string) (string, error) {
	if !strings.HasPrefix(key, keyPrefix) {
		return "", ErrInvalidKey
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey returns ErrInvalidKey when key does not match hash.
func VerifyKey(hash, key string) error {
	if hash == "" || key == "" {
		return ErrInvalidKey
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return ErrInvalidKey
		}
		return fmt.Errorf("verify key: %w", err)
	}
	return nil
}

// BearerKey extracts the key from an Authorization header value.
func BearerKey(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	key := strings.TrimSpace(header[len(prefix):])
	return key, key != ""
}
