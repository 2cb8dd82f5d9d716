package pkce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateChallenge(t *testing.T) {
	// RFC 7636 appendix B reference vector.
	challenge := GenerateChallenge("dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk")
	require.Equal(t, "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM", challenge)
}

func TestVerifyChallengeS256(t *testing.T) {
	challenge := GenerateChallenge("verifierABC")

	assert.True(t, VerifyChallenge("verifierABC", challenge, MethodS256))
	assert.True(t, VerifyChallenge("verifierABC", challenge, ""), "empty method defaults to S256")
	assert.False(t, VerifyChallenge("verifierXYZ", challenge, MethodS256))
}

func TestVerifyChallengePlain(t *testing.T) {
	assert.True(t, VerifyChallenge("same-value", "same-value", MethodPlain))
	assert.False(t, VerifyChallenge("same-value", "other-value", MethodPlain))
}

func TestVerifyChallengeUnknownMethodFailsClosed(t *testing.T) {
	challenge := GenerateChallenge("verifierABC")
	assert.False(t, VerifyChallenge("verifierABC", challenge, "S512"))
	assert.False(t, VerifyChallenge("verifierABC", "verifierABC", "none"))
}
