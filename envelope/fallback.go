package envelope

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/nacl/secretbox"

	"github.com/opd-ai/chatseal/crypto"
)

// FallbackRecipientID marks an envelope produced by the single-device
// password cipher. Fallback envelopes carry no per-recipient wrapped keys;
// they can only be opened where the deriving passphrase is available, so
// they are never used for multi-recipient delivery.
const FallbackRecipientID = "local"

const fallbackNonceSize = 24

// SealFallback encrypts plaintext under a password-derived key using
// authenticated symmetric encryption. It reuses the envelope wire shape:
// the secretbox nonce travels in the iv field and recipientKeys holds the
// single sentinel entry.
func SealFallback(plaintext []byte, key crypto.PasswordKey) (*Envelope, error) {
	if len(plaintext) > MaxPayloadSize {
		return nil, newEnvelopeError("seal_fallback", "", fmt.Errorf("%w: payload too large", ErrEncryption))
	}

	var nonce [fallbackNonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, newEnvelopeError("seal_fallback", "", err)
	}

	sealed := secretbox.Seal(nil, plaintext, &nonce, (*[32]byte)(&key))

	return &Envelope{
		EncryptedContent: base64.StdEncoding.EncodeToString(sealed),
		IV:               base64.StdEncoding.EncodeToString(nonce[:]),
		RecipientKeys:    map[string]string{FallbackRecipientID: ""},
		IsEncrypted:      true,
	}, nil
}

// OpenFallback decrypts a fallback envelope with the password-derived key.
func OpenFallback(env *Envelope, key crypto.PasswordKey) ([]byte, error) {
	if env == nil || !env.IsEncrypted {
		return nil, newEnvelopeError("open_fallback", "", ErrMalformed)
	}
	if !env.IsFallback() {
		return nil, newEnvelopeError("open_fallback", FallbackRecipientID, ErrNoRecipientKey)
	}

	nonceBytes, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(nonceBytes) != fallbackNonceSize {
		return nil, newEnvelopeError("open_fallback", "", fmt.Errorf("%w: bad nonce", ErrDecryption))
	}
	var nonce [fallbackNonceSize]byte
	copy(nonce[:], nonceBytes)

	sealed, err := base64.StdEncoding.DecodeString(env.EncryptedContent)
	if err != nil {
		return nil, newEnvelopeError("open_fallback", "", fmt.Errorf("%w: bad ciphertext encoding", ErrDecryption))
	}

	plaintext, ok := secretbox.Open(nil, sealed, &nonce, (*[32]byte)(&key))
	if !ok {
		return nil, newEnvelopeError("open_fallback", "", fmt.Errorf("%w: authentication failed", ErrDecryption))
	}
	return plaintext, nil
}

// IsFallback reports whether the envelope was produced by SealFallback.
func (e *Envelope) IsFallback() bool {
	_, ok := e.RecipientKeys[FallbackRecipientID]
	return ok && len(e.RecipientKeys) == 1
}
