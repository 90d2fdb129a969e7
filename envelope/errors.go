package envelope

import (
	"errors"
	"fmt"
)

// Common errors for envelope operations.
var (
	// ErrEncryption indicates no recipient key could be wrapped
	ErrEncryption = errors.New("envelope encryption failed: zero usable recipients")

	// ErrNoRecipientKey indicates the envelope carries no wrapped key for
	// the requesting identity
	ErrNoRecipientKey = errors.New("no wrapped key for recipient")

	// ErrDecryption indicates key unwrap or payload authentication failed
	ErrDecryption = errors.New("envelope decryption failed")

	// ErrMalformed indicates the envelope is structurally invalid
	ErrMalformed = errors.New("malformed envelope")
)

// EnvelopeError wraps an envelope failure with operation context.
type EnvelopeError struct {
	Op     string // operation that caused the error
	UserID string // recipient identity if relevant
	Err    error  // underlying error
}

func (e *EnvelopeError) Error() string {
	if e.UserID != "" {
		return fmt.Sprintf("envelope %s %s: %v", e.Op, e.UserID, e.Err)
	}
	return fmt.Sprintf("envelope %s: %v", e.Op, e.Err)
}

func (e *EnvelopeError) Unwrap() error {
	return e.Err
}

// newEnvelopeError creates a new EnvelopeError.
func newEnvelopeError(op, userID string, err error) *EnvelopeError {
	return &EnvelopeError{
		Op:     op,
		UserID: userID,
		Err:    err,
	}
}
