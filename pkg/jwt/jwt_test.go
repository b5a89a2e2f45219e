package jwt

import (
	"errors"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTService_IssueAndValidate(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)

	token, err := svc.IssueToken("ops", "transfers:write")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Operator)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, "transfers:write", claims.Scope)
}

func TestJWTService_ValidateInvalidToken(t *testing.T) {
	svc := NewJWTService("secret", time.Minute)

	_, err := svc.ValidateToken("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_ValidateExpiredToken(t *testing.T) {
	svc := NewJWTService("secret", -time.Second)

	token, err := svc.IssueToken("ops", "transfers:write")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestJWTService_WrongSecret(t *testing.T) {
	token, err := NewJWTService("secret-a", time.Minute).IssueToken("ops", "")
	require.NoError(t, err)

	_, err = NewJWTService("secret-b", time.Minute).ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_RejectsForeignIssuer(t *testing.T) {
	claims := &Claims{Operator: "ops", RegisteredClaims: gjwt.RegisteredClaims{
		Issuer:    "someone-else",
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
	}}
	raw, err := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret", time.Minute).ValidateToken(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestJWTService_SignError(t *testing.T) {
	orig := signJWTToken
	t.Cleanup(func() { signJWTToken = orig })
	signJWTToken = func(*gjwt.Token, []byte) (string, error) {
		return "", errors.New("sign failed")
	}

	_, err := NewJWTService("secret", time.Minute).IssueToken("ops", "")
	assert.Error(t, err)
}
