package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// DefaultNonceBytes is the size RandomHex uses when callers pass n <= 0.
const DefaultNonceBytes = 8

// SecureHash returns the keyed HMAC-SHA256 hex digest of raw. It is
// deterministic so an opaque refresh token can be looked up by its digest
// without storing or decoding the token itself.
func (h *Hasher) SecureHash(raw string) string {
	mac := hmac.New(sha256.New, h.secret)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}

// RandomHex returns n cryptographically random bytes hex-encoded, so the
// result is 2n characters long.
func RandomHex(n int) (string, error) {
	if n <= 0 {
		n = DefaultNonceBytes
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
