package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatseal/crypto"
)

// Encrypt seals plaintext into an envelope addressed to the given
// recipients.
//
// A fresh content key and IV are generated per call and never reused. A
// recipient whose public key material is malformed is skipped with a
// warning rather than aborting the envelope; partial-recipient delivery is
// acceptable. Only when zero recipients can be wrapped does Encrypt fail,
// with ErrEncryption, so the caller can apply its degradation policy.
func Encrypt(plaintext []byte, recipients []Recipient) (*Envelope, error) {
	if len(plaintext) > MaxPayloadSize {
		return nil, newEnvelopeError("encrypt", "", fmt.Errorf("%w: payload too large", ErrEncryption))
	}
	if len(recipients) == 0 {
		return nil, newEnvelopeError("encrypt", "", ErrEncryption)
	}

	key, err := crypto.GenerateContentKey()
	if err != nil {
		return nil, newEnvelopeError("encrypt", "", err)
	}

	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, newEnvelopeError("encrypt", "", err)
	}

	block, err := aes.NewCipher(key.Bytes())
	if err != nil {
		return nil, newEnvelopeError("encrypt", "", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, newEnvelopeError("encrypt", "", err)
	}
	ciphertext := gcm.Seal(nil, iv, plaintext, nil)

	wrapped := make(map[string]string, len(recipients))
	for _, r := range recipients {
		pub, err := crypto.ImportPublicKey(r.PublicKey)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Encrypt",
				"user_id":  r.UserID,
				"error":    err.Error(),
			}).Warn("Skipping recipient with malformed public key")
			continue
		}

		wk, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, pub, key.Bytes(), nil)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "Encrypt",
				"user_id":  r.UserID,
				"error":    err.Error(),
			}).Warn("Skipping recipient whose key wrap failed")
			continue
		}
		wrapped[r.UserID] = base64.StdEncoding.EncodeToString(wk)
	}

	if len(wrapped) == 0 {
		logrus.WithFields(logrus.Fields{
			"function":   "Encrypt",
			"recipients": len(recipients),
		}).Warn("No recipient key could be wrapped")
		return nil, newEnvelopeError("encrypt", "", ErrEncryption)
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Encrypt",
		"wrapped":   len(wrapped),
		"requested": len(recipients),
	}).Debug("Envelope sealed")

	return &Envelope{
		EncryptedContent: base64.StdEncoding.EncodeToString(ciphertext),
		IV:               base64.StdEncoding.EncodeToString(iv),
		RecipientKeys:    wrapped,
		IsEncrypted:      true,
	}, nil
}
