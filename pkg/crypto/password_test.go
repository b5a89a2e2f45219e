package crypto

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHashAndCheckSecret(t *testing.T) {
	orig := bcryptGenerateFromPassword
	t.Cleanup(func() { bcryptGenerateFromPassword = orig })
	bcryptGenerateFromPassword = func(p []byte, _ int) ([]byte, error) {
		return bcrypt.GenerateFromPassword(p, bcrypt.MinCost)
	}

	hash, err := HashSecret("ccr_key")
	require.NoError(t, err)

	assert.True(t, CheckSecret("ccr_key", hash))
	assert.False(t, CheckSecret("wrong", hash))
	assert.False(t, CheckSecret("", hash))
	assert.False(t, CheckSecret("ccr_key", ""))
}

func TestGenerateAPIKey(t *testing.T) {
	key, err := GenerateAPIKey()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "ccr_"))
	assert.Len(t, key, len("ccr_")+2*APIKeyBytes)
}

func TestErrorBranches(t *testing.T) {
	origBcrypt := bcryptGenerateFromPassword
	origRead := randomRead
	t.Cleanup(func() {
		bcryptGenerateFromPassword = origBcrypt
		randomRead = origRead
	})

	bcryptGenerateFromPassword = func([]byte, int) ([]byte, error) {
		return nil, errors.New("bcrypt failed")
	}
	_, err := HashSecret("x")
	assert.ErrorContains(t, err, "failed to hash secret")

	randomRead = func([]byte) (int, error) {
		return 0, errors.New("entropy exhausted")
	}
	_, err = GenerateAPIKey()
	assert.ErrorContains(t, err, "failed to generate random token")
}
