package gateway

import (
	"crypto/hmac"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
)

// Signature computes the hex HMAC-SHA512 of the raw webhook body under the
// shared secret, matching what the gateway puts in SignatureHeader.
func Signature(secret string, body []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ValidSignature checks a webhook signature in constant time. An empty
// secret never validates: misconfiguration must fail closed.
func ValidSignature(secret string, body []byte, header string) bool {
	if secret == "" || header == "" {
		return false
	}
	want := Signature(secret, body)
	return subtle.ConstantTimeCompare([]byte(want), []byte(header)) == 1
}
