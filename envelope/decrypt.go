package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/opd-ai/chatseal/crypto"
)

// Decrypt recovers the plaintext of an envelope addressed to selfUserID.
//
// It fails with ErrNoRecipientKey when the envelope carries no wrapped key
// for that identity, and with ErrDecryption on unwrap failure or GCM
// authentication failure. Corrupted data is never returned; the auth tag
// check fails closed.
func Decrypt(env *Envelope, selfUserID string, priv *rsa.PrivateKey) ([]byte, error) {
	if env == nil || !env.IsEncrypted {
		return nil, newEnvelopeError("decrypt", selfUserID, ErrMalformed)
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	if priv == nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: nil private key", ErrDecryption))
	}

	wrappedB64, ok := env.RecipientKeys[selfUserID]
	if !ok {
		return nil, newEnvelopeError("decrypt", selfUserID, ErrNoRecipientKey)
	}

	wrapped, err := base64.StdEncoding.DecodeString(wrappedB64)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: wrapped key is not base64", ErrDecryption))
	}

	raw, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, priv, wrapped, nil)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: key unwrap failed", ErrDecryption))
	}

	key, err := crypto.ContentKeyFromBytes(raw)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: unwrapped key invalid", ErrDecryption))
	}

	iv, err := base64.StdEncoding.DecodeString(env.IV)
	if err != nil || len(iv) != IVSize {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: bad iv", ErrDecryption))
	}
	ciphertext, err := base64.StdEncoding.DecodeString(env.EncryptedContent)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: bad ciphertext encoding", ErrDecryption))
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, err)
	}

	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, newEnvelopeError("decrypt", selfUserID, fmt.Errorf("%w: authentication failed", ErrDecryption))
	}
	return plaintext, nil
}
