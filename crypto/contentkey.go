package crypto

import (
	"crypto/rand"
	"fmt"
)

// ContentKeySize is the AES-256-GCM key size in bytes.
const ContentKeySize = 32

// ContentKey is a single-use symmetric key. One is generated per envelope
// and discarded after the encrypt call that created it; reusing a content
// key across envelopes would allow ciphertext correlation across messages.
type ContentKey [ContentKeySize]byte

// GenerateContentKey creates a fresh random AES-256 content key.
func GenerateContentKey() (ContentKey, error) {
	var key ContentKey
	if _, err := rand.Read(key[:]); err != nil {
		return ContentKey{}, fmt.Errorf("%w: %v", ErrUnsupportedPlatform, err)
	}
	return key, nil
}

// Bytes exports the raw key bytes for recipient wrapping.
func (k ContentKey) Bytes() []byte {
	out := make([]byte, ContentKeySize)
	copy(out, k[:])
	return out
}

// ContentKeyFromBytes reconstructs a content key from unwrapped raw bytes.
func ContentKeyFromBytes(raw []byte) (ContentKey, error) {
	var key ContentKey
	if len(raw) != ContentKeySize {
		return ContentKey{}, fmt.Errorf("%w: content key must be %d bytes, got %d",
			ErrInvalidKeyMaterial, ContentKeySize, len(raw))
	}
	copy(key[:], raw)
	return key, nil
}
