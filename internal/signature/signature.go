// Package signature implements the keyed signature the unattended client
// attaches to every trade report.
//
// The canonical payload is the encoding/json serialization of the report with
// the signature field removed. Field order is fixed by struct declaration
// order on both sides, so signer and verifier agree byte for byte.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
)

// Sign computes the base64-encoded HMAC-SHA256 of payload keyed by secret.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// Verify reports whether provided is the signature of payload under secret.
// The comparison is constant time. Malformed input yields false, never an
// error.
func Verify(payload []byte, provided, secret string) bool {
	got, err := base64.StdEncoding.DecodeString(provided)
	if err != nil {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hmac.Equal(got, mac.Sum(nil))
}
