package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"external_account_id":"abc","ticket":12345,"symbol":"EURUSD","lots":"2.5"}`)
	secret := "per-account-secret"

	sig := Sign(payload, secret)
	assert.NotEmpty(t, sig)
	assert.True(t, Verify(payload, sig, secret))
}

func TestVerify_RejectsMutatedPayload(t *testing.T) {
	payload := []byte(`{"external_account_id":"abc","ticket":12345,"symbol":"EURUSD","lots":"2.5"}`)
	secret := "per-account-secret"
	sig := Sign(payload, secret)

	// Every single-byte mutation of the signed payload must fail verification.
	for i := range payload {
		mutated := make([]byte, len(payload))
		copy(mutated, payload)
		mutated[i] ^= 0x01
		assert.False(t, Verify(mutated, sig, secret), "mutation at byte %d was accepted", i)
	}
}

func TestVerify_RejectsWrongSecret(t *testing.T) {
	payload := []byte(`{"ticket":1}`)
	sig := Sign(payload, "right-secret")

	assert.False(t, Verify(payload, sig, "wrong-secret"))
}

func TestVerify_MalformedSignature(t *testing.T) {
	payload := []byte(`{"ticket":1}`)

	// Not valid base64, truncated, and empty signatures all return false
	// without panicking.
	assert.False(t, Verify(payload, "!!!not-base64!!!", "secret"))
	assert.False(t, Verify(payload, Sign(payload, "secret")[:8], "secret"))
	assert.False(t, Verify(payload, "", "secret"))
}
