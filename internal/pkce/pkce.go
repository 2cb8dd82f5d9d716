// Package pkce implements the Proof Key for Code Exchange challenge
// computation and verification (RFC 7636).
package pkce

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// Challenge methods accepted at issuance and exchange.
const (
	MethodS256  = "S256"
	MethodPlain = "plain"
)

// GenerateChallenge computes the S256 challenge for a verifier: the
// unpadded base64url encoding of its SHA-256 digest.
func GenerateChallenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// VerifyChallenge checks a code verifier against the challenge the code was
// issued with. An empty method defaults to S256. Unknown methods fail
// closed: the result is false, not an error, and the caller treats it as
// invalid_grant.
func VerifyChallenge(verifier, challenge, method string) bool {
	switch method {
	case MethodPlain:
		return subtle.ConstantTimeCompare([]byte(verifier), []byte(challenge)) == 1
	case MethodS256, "":
		computed := GenerateChallenge(verifier)
		return subtle.ConstantTimeCompare([]byte(computed), []byte(challenge)) == 1
	default:
		return false
	}
}
