package chatseal

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatseal/envelope"
)

// Outgoing is the result of a send: either an envelope for the encrypted
// path or the original plaintext for the documented fallback. The caller
// hands whichever is set to its transport.
type Outgoing struct {
	Encrypted bool
	Envelope  *envelope.Envelope
	Plaintext string
}

// SendMessage encrypts a chat message for the given recipients, or returns
// the plaintext fallback when the degradation policy rules encryption out.
// Total encryption failure (zero usable recipients) also degrades to
// plaintext rather than erroring, since the policy contract owns that
// decision here.
func (c *Client) SendMessage(plaintext string, recipients []envelope.Recipient) (*Outgoing, error) {
	if c.isClosed() {
		return nil, errors.New("chatseal: client is closed")
	}

	if !c.ShouldEncrypt(FeatureMessages, recipients) {
		logrus.WithFields(logrus.Fields{
			"function": "SendMessage",
			"user_id":  c.userID,
		}).Debug("Degradation policy selected the plaintext path")
		return &Outgoing{Encrypted: false, Plaintext: plaintext}, nil
	}

	env, err := envelope.Encrypt([]byte(plaintext), recipients)
	if err != nil {
		if errors.Is(err, envelope.ErrEncryption) {
			logrus.WithFields(logrus.Fields{
				"function": "SendMessage",
				"user_id":  c.userID,
				"error":    err.Error(),
			}).Warn("Encryption failed for all recipients, falling back to plaintext")
			return &Outgoing{Encrypted: false, Plaintext: plaintext}, nil
		}
		return nil, err
	}

	return &Outgoing{Encrypted: true, Envelope: env}, nil
}

// ReceiveMessage recovers the plaintext of an incoming envelope through the
// decryption cache. Failures propagate so the caller can render an
// explicit placeholder for that message; corrupted plaintext is never
// fabricated. Envelopes with isEncrypted=false carry base64 plaintext in
// encryptedContent and are decoded directly.
func (c *Client) ReceiveMessage(env *envelope.Envelope) (string, error) {
	if c.isClosed() {
		return "", errors.New("chatseal: client is closed")
	}
	if env == nil {
		return "", envelope.ErrMalformed
	}

	if !env.IsEncrypted {
		raw, err := base64.StdEncoding.DecodeString(env.EncryptedContent)
		if err != nil {
			return "", fmt.Errorf("%w: plaintext content is not base64", envelope.ErrMalformed)
		}
		return string(raw), nil
	}

	c.mu.RLock()
	keyPair := c.keyPair
	c.mu.RUnlock()
	if keyPair == nil {
		return "", fmt.Errorf("%w: no local private key", envelope.ErrDecryption)
	}

	plaintext, err := c.cache.DecryptCached(env, c.userID, func(e *envelope.Envelope) ([]byte, error) {
		return envelope.Decrypt(e, c.userID, keyPair.Private)
	})
	if err != nil {
		return "", err
	}
	return string(plaintext), nil
}
