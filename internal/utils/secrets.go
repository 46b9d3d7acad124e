package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// secretBytes gives 256-bit HMAC keys
const secretBytes = 32

// RandomHex returns n random bytes hex encoded
func RandomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// JWTSecrets is a fresh pair of signing keys
type JWTSecrets struct {
	Access  string
	Refresh string
}

// NewJWTSecrets generates distinct access and refresh keys
func NewJWTSecrets() (JWTSecrets, error) {
	access, err := RandomHex(secretBytes)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate access secret: %w", err)
	}
	refresh, err := RandomHex(secretBytes)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return JWTSecrets{Access: access, Refresh: refresh}, nil
}
