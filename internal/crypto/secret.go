// Package crypto hashes and verifies device secrets on the token service.
package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for server-side secret hashing.
const (
	argonTime    uint32 = 3
	argonMemory  uint32 = 64 * 1024 // KiB
	argonThreads uint8  = 1
	argonKeyLen  uint32 = 32

	// SaltLen is the length of the per-account salt.
	SaltLen = 16
)

// RandBytes returns n cryptographically secure random bytes.
func RandBytes(n int) ([]byte, error) {
	b := make([]byte, n)
	_, err := rand.Read(b)
	return b, err
}

// NewSalt returns a fresh per-account salt.
func NewSalt() ([]byte, error) { return RandBytes(SaltLen) }

// NewDeviceSecret returns a random URL-safe secret suitable for enrollment.
func NewDeviceSecret() (string, error) {
	b, err := RandBytes(32)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSecret returns the Argon2id hash of secret under salt.
func HashSecret(secret, salt []byte) []byte {
	return argon2.IDKey(secret, salt, argonTime, argonMemory, argonThreads, argonKeyLen)
}

// VerifySecret compares secret against an expected hash in constant time.
func VerifySecret(secret, salt, expected []byte) bool {
	if len(expected) == 0 {
		return false
	}
	got := HashSecret(secret, salt)
	return subtle.ConstantTimeCompare(got, expected) == 1
}
