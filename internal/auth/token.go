package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// Token format: rcp_{prefix}_{secret}
// Example: rcp_7a9e3c_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b
const (
	TokenPrefixLen = 6  // Visible prefix length (hex encoded 3 bytes)
	TokenSecretLen = 32 // Secret length (hex encoded 16 bytes)
)

var (
	// ErrInvalidTokenFormat indicates the token format is invalid.
	ErrInvalidTokenFormat = errors.New("invalid token format")
	// tokenFormatRegex validates the token format.
	tokenFormatRegex = regexp.MustCompile(`^rcp_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GenerateToken creates a new opaque bearer token.
// The full key is stored server-side so issuing stays idempotent per user.
func GenerateToken() (string, error) {
	prefixBytes := make([]byte, 3)
	if _, err := rand.Read(prefixBytes); err != nil {
		return "", fmt.Errorf("generate prefix: %w", err)
	}

	secretBytes := make([]byte, 16)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}

	return fmt.Sprintf("rcp_%s_%s",
		hex.EncodeToString(prefixBytes),
		hex.EncodeToString(secretBytes),
	), nil
}

// ValidateTokenFormat checks if the token matches the expected format.
// A format check before any database lookup keeps garbage off the hot path.
func ValidateTokenFormat(token string) bool {
	return tokenFormatRegex.MatchString(token)
}
