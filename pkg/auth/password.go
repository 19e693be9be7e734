package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/pbkdf2"
)

const (
	SaltLength       = 32     // 256 bits
	DigestLength     = 32     // SHA-256 output size
	PBKDF2Iterations = 210000 // OWASP recommendation for PBKDF2-HMAC-SHA256
)

// GenerateSalt returns a fixed-length cryptographically random salt. It is
// also used to produce the random, unverifiable digest stored when a password
// is cleared.
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// HashPassword derives the stored digest for the given plaintext and salt.
// The derivation is deterministic: the same plaintext and salt always produce
// the same digest.
func HashPassword(password string, salt []byte) []byte {
	return pbkdf2.Key([]byte(password), salt, PBKDF2Iterations, DigestLength, sha256.New)
}

// VerifyPassword reports whether the given plaintext, hashed with the given
// salt, matches the stored digest. The comparison is constant time.
func VerifyPassword(password string, salt, digest []byte) bool {
	computed := HashPassword(password, salt)
	return subtle.ConstantTimeCompare(computed, digest) == 1
}
