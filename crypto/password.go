package crypto

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Parameters for argon2id password key derivation.
const (
	// FallbackSaltSize is the salt length for password key derivation.
	FallbackSaltSize = 16

	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
)

// PasswordKey is a symmetric key derived from a local passphrase. It backs
// the single-device fallback cipher used when asymmetric primitives are
// unavailable; it cannot wrap keys for remote recipients.
type PasswordKey [32]byte

// DerivePasswordKey derives a fallback cipher key from a passphrase and
// salt using argon2id. The same passphrase and salt always yield the same
// key, so the caller only needs to persist the salt.
func DerivePasswordKey(passphrase string, salt []byte) (PasswordKey, error) {
	var key PasswordKey
	if len(passphrase) == 0 {
		return PasswordKey{}, fmt.Errorf("%w: empty passphrase", ErrInvalidKeyMaterial)
	}
	if len(salt) != FallbackSaltSize {
		return PasswordKey{}, fmt.Errorf("%w: salt must be %d bytes, got %d",
			ErrInvalidKeyMaterial, FallbackSaltSize, len(salt))
	}

	derived := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, 32)
	copy(key[:], derived)
	return key, nil
}

// NewFallbackSalt generates a random salt for password key derivation.
func NewFallbackSalt() ([]byte, error) {
	salt := make([]byte, FallbackSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}
	return salt, nil
}
