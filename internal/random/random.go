// Package random produces the opaque credential strings handed out by the
// authorization server: codes, access tokens and refresh tokens.
package random

import (
	"crypto/rand"
	"fmt"
)

// alphabet is the unreserved URL-safe set from RFC 3986, so credentials can
// travel in query strings and headers without escaping.
const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-._~"

const (
	codeLength  = 32
	tokenLength = 64
)

// String returns n characters drawn uniformly from the unreserved alphabet
// using the platform CSPRNG. Bytes outside the largest multiple of the
// alphabet size are rejected to avoid modulo bias.
func String(n int) (string, error) {
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	// 66 symbols; accept bytes below 198 (3*66) and reject the rest.
	limit := byte(len(alphabet) *(256 / len(alphabet)))

	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if b >= limit {
				continue
			}
			out = append(out, alphabet[int(b)%len(alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Code returns a 32-character authorization code.
func Code() (string, error) {
	return String(codeLength)
}

// Token returns a 64-character access or refresh token. Uniqueness is
// enforced by the store's insert constraint, not checked here.
func Token() (string, error) {
	return String(tokenLength)
}
