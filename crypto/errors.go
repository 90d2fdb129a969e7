package crypto

import "errors"

// Common errors for key management operations.
var (
	// ErrKeygen indicates the platform failed to generate a key pair
	ErrKeygen = errors.New("key pair generation failed")

	// ErrInvalidKeyMaterial indicates key material could not be parsed
	ErrInvalidKeyMaterial = errors.New("invalid key material")

	// ErrUnsupportedPlatform indicates cryptographic primitives are unavailable
	ErrUnsupportedPlatform = errors.New("cryptographic primitives unavailable")
)
