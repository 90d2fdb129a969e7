package envelope

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// IVSize is the AES-GCM nonce size in bytes (96 bits).
const IVSize = 12

// MaxPayloadSize caps the plaintext accepted by Encrypt (1MB, to prevent
// excessive memory usage).
const MaxPayloadSize = 1024 * 1024

// Envelope is the self-contained encrypted unit exchanged over the wire.
// It is read-only once produced: decrypting does not mutate it, and the
// same recipient may re-decrypt it idempotently.
type Envelope struct {
	EncryptedContent string            `json:"encryptedContent"`
	IV               string            `json:"iv"`
	RecipientKeys    map[string]string `json:"recipientKeys"`
	IsEncrypted      bool              `json:"isEncrypted"`
}

// Recipient pairs a user identity with their exported public key material.
// The caller's directory supplies these per outgoing call; this package
// never fetches keys itself.
type Recipient struct {
	UserID    string
	PublicKey string
}

// Marshal serializes the envelope to its wire JSON.
func (e *Envelope) Marshal() ([]byte, error) {
	if err := e.validate(); err != nil {
		return nil, err
	}
	return json.Marshal(e)
}

// ParseEnvelope deserializes and validates wire JSON. Malformed input is
// rejected here, at the boundary, so downstream code can rely on the
// structure being complete.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, newEnvelopeError("parse", "", fmt.Errorf("%w: %v", ErrMalformed, err))
	}
	if err := env.validate(); err != nil {
		return nil, err
	}
	return &env, nil
}

// validate checks the structural invariants of an encrypted envelope.
func (e *Envelope) validate() error {
	if !e.IsEncrypted {
		return nil
	}
	if e.EncryptedContent == "" {
		return newEnvelopeError("validate", "", fmt.Errorf("%w: missing encryptedContent", ErrMalformed))
	}
	if e.IV == "" {
		return newEnvelopeError("validate", "", fmt.Errorf("%w: missing iv", ErrMalformed))
	}
	if len(e.RecipientKeys) == 0 {
		return newEnvelopeError("validate", "", fmt.Errorf("%w: empty recipientKeys", ErrMalformed))
	}
	if _, err := base64.StdEncoding.DecodeString(e.EncryptedContent); err != nil {
		return newEnvelopeError("validate", "", fmt.Errorf("%w: encryptedContent is not base64", ErrMalformed))
	}
	if _, err := base64.StdEncoding.DecodeString(e.IV); err != nil {
		return newEnvelopeError("validate", "", fmt.Errorf("%w: iv is not base64", ErrMalformed))
	}
	return nil
}
