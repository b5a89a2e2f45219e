package crypto

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost  = 12
	// APIKeyBytes is the entropy of a generated operator API key.
	APIKeyBytes  = 24
	apiKeyPrefix = "ccr_"
)

var (
	bcryptGenerateFromPassword = bcrypt.GenerateFromPassword
	randomRead                 = rand.Read
)

// HashSecret bcrypt-hashes an operator API key.
func HashSecret(secret string) (string, error) {
	bytes, err := bcryptGenerateFromPassword([]byte(secret), DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(bytes), nil
}

// CheckSecret compares a presented key with its bcrypt hash.
func CheckSecret(secret, hash string) bool {
	if secret == "" || hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// GenerateRandomToken returns length random bytes hex-encoded.
func GenerateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := randomRead(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random token: %w", err)
	}
	return hex.EncodeToString(bytes), nil
}

// GenerateAPIKey returns a new prefixed operator key.
func GenerateAPIKey() (string, error) {
	tok, err := GenerateRandomToken(APIKeyBytes)
	if err != nil {
		return "", err
	}
	return apiKeyPrefix + tok, nil
}
