// Package cryptox holds the key-derivation primitives used by the offline
// credential cache. A password is never stored: the client keeps only a salt
// and an argon2id-derived verifier, which is enough to check a login attempt
// on this device without connectivity.
package cryptox

import (
	"crypto/sha256"

	"golang.org/x/crypto/argon2"
)

// DeriveKey stretches a password with argon2id into a 32-byte key.
func DeriveKey(password []byte, salt []byte) []byte {
	return argon2.IDKey(password, salt, 1, 64*1024, 4, 32)
}

// MakeVerifier reduces a derived key to the value stored locally.
// Storing the hash rather than the key keeps the cached copy one-way.
func MakeVerifier(key []byte) []byte {
	hash := sha256.Sum256(key)
	return hash[:]
}
