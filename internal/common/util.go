package common

import (
	"crypto/rand"
	"encoding/hex"
)

// TokenSize is the number of random bytes behind an account token.
const TokenSize = 32

// MakeRandHexString returns size random bytes encoded as hex, so the result is
// 2*size characters long.
func MakeRandHexString(size int) (string, error) {
	b := make([]byte, size)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewAccountToken returns a fresh opaque account token.
func NewAccountToken() (string, error) {
	return MakeRandHexString(TokenSize)
}

// WipeByteArray zeroes b in place.
func WipeByteArray(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
