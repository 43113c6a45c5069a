package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

const (
	fixtureSecret    = "s3cr3t"
	fixturePayload   = `{"a":1}`
	fixtureSignature = "d42927434049e0b8c73ce887062238cc1c6bb6644bfe66e66d8dd0f30b85679e"
)

func TestGenerateSignature_Fixture(t *testing.T) {
	mac := hmac.New(sha256.New, []byte(fixtureSecret))
	mac.Write([]byte(fixturePayload))
	independent := hex.EncodeToString(mac.Sum(nil))

	got := GenerateSignature([]byte(fixturePayload), fixtureSecret)
	assert.Equal(t, independent, got)
	assert.Equal(t, fixtureSignature, got)
	assert.Len(t, got, 64)
	assert.Equal(t, strings.ToLower(got), got)
}

func TestVerifySignature_RoundTrip(t *testing.T) {
	cases := []struct{ payload, secret string }{
		{"", ""},
		{fixturePayload, fixtureSecret},
		{`{"jobId":"j-1","status":"completed"}`, "pipeline-secret"},
		{"ünïcödé ✓", "clé"},
		{strings.Repeat("x", 10_000), strings.Repeat("k", 200)},
	}
	for _, tc := range cases {
		sig := GenerateSignature([]byte(tc.payload), tc.secret)
		assert.True(t, VerifySignature([]byte(tc.payload), sig, tc.secret), "payload %q", tc.payload)
	}
}

func TestVerifySignature_TamperDetection(t *testing.T) {
	// payload com um caractere alterado
	assert.False(t, VerifySignature([]byte(`{"a":2}`), fixtureSignature, fixtureSecret))
	// segredo com um caractere alterado
	assert.False(t, VerifySignature([]byte(fixturePayload), fixtureSignature, "s3cr3T"))
	// 64º caractere hex corrompido
	corrupted := fixtureSignature[:63] + "f"
	assert.NotEqual(t, fixtureSignature, corrupted)
	assert.False(t, VerifySignature([]byte(fixturePayload), corrupted, fixtureSecret))
	// primeiro caractere corrompido
	assert.False(t, VerifySignature([]byte(fixturePayload), "e"+fixtureSignature[1:], fixtureSecret))
	// maiúsculas não são aceitas
	assert.False(t, VerifySignature([]byte(fixturePayload), strings.ToUpper(fixtureSignature), fixtureSecret))
	assert.True(t, VerifySignature([]byte(fixturePayload), fixtureSignature, fixtureSecret))
}

func TestScanEqual_AlwaysScansFullLength(t *testing.T) {
	base := fixtureSignature

	for _, pos := range []int{0, 1, 31, 62, 63} {
		other := []byte(base)
		other[pos] ^= 0x01
		eq, scanned := scanEqual(base, string(other))
		assert.False(t, eq, "mismatch at %d", pos)
		assert.Equal(t, len(base), scanned, "mismatch at %d must still scan everything", pos)
	}

	eq, scanned := scanEqual(base, base)
	assert.True(t, eq)
	assert.Equal(t, len(base), scanned)
}

func TestScanEqual_LengthMismatchShortCircuits(t *testing.T) {
	eq, scanned := scanEqual("abc", "abcd")
	assert.False(t, eq)
	assert.Zero(t, scanned)
	assert.False(t, ConstantTimeEqual("", "a"))
	assert.True(t, ConstantTimeEqual("", ""))
}

func TestDigestPrefix(t *testing.T) {
	assert.Equal(t, "d4292743...", digestPrefix(fixtureSignature))
	assert.Equal(t, "abc", digestPrefix("abc"))
}
