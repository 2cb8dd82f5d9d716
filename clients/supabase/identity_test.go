package supabase

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signIdentityToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	return signed
}

func TestVerifyIdentityToken(t *testing.T) {
	secret := "super-secret-jwt-token"
	v := NewIdentityVerifier(secret)

	tokenString := signIdentityToken(t, secret, jwt.MapClaims{
		"sub":   "user-123",
		"email": "alex@example.com",
		"role":  "authenticated",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	identity, err := v.Verify(tokenString)
	require.NoError(t, err)
	assert.Equal(t, "user-123", identity.UserID)
	assert.Equal(t, "alex@example.com", identity.Email)
	assert.Equal(t, "authenticated", identity.Role)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	v := NewIdentityVerifier("the-right-secret")

	tokenString := signIdentityToken(t, "the-wrong-secret", jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	secret := "super-secret-jwt-token"
	v := NewIdentityVerifier(secret)

	tokenString := signIdentityToken(t, secret, jwt.MapClaims{
		"sub": "user-123",
		"exp": time.Now().Add(-time.Minute).Unix(),
	})

	_, err := v.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsMissingSubject(t *testing.T) {
	secret := "super-secret-jwt-token"
	v := NewIdentityVerifier(secret)

	tokenString := signIdentityToken(t, secret, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	_, err := v.Verify(tokenString)
	assert.Error(t, err)
}

func TestVerifyRejectsUnsignedToken(t *testing.T) {
	v := NewIdentityVerifier("super-secret-jwt-token")

	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "user-123",
	})
	unsigned, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = v.Verify(unsigned)
	assert.Error(t, err)
}

func TestVerifyUnconfiguredSecret(t *testing.T) {
	v := NewIdentityVerifier("")

	_, err := v.Verify("whatever")
	assert.Error(t, err)
}
