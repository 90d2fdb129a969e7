// Package crypto implements key management for the chatseal envelope
// protocol.
//
// This package handles asymmetric key pair generation, interoperable key
// material export/import, single-use content key generation, and the
// one-time platform capability probe. It performs no network or disk I/O;
// durable key storage is the caller's responsibility.
//
// Example:
//
//	keys, err := crypto.GenerateKeyPair()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	material, _ := keys.ExportPublic()
//	fmt.Println("Public key:", material[:32], "...")
package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/sirupsen/logrus"
)

// KeyBits is the RSA modulus size used for envelope key wrapping.
const KeyBits = 2048

// KeyPair represents the local user's RSA-OAEP key pair. The private key
// never leaves the device; only exported public material is shared with
// other users through the caller's directory.
type KeyPair struct {
	Public  *rsa.PublicKey
	Private *rsa.PrivateKey
}

// GenerateKeyPair creates a new RSA-OAEP 2048-bit key pair.
func GenerateKeyPair() (*KeyPair, error) {
	priv, err := rsa.GenerateKey(rand.Reader, KeyBits)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "GenerateKeyPair",
			"error":    err.Error(),
		}).Error("RSA key pair generation failed")
		return nil, fmt.Errorf("%w: %v", ErrKeygen, err)
	}

	logrus.WithFields(logrus.Fields{
		"function": "GenerateKeyPair",
		"bits":     KeyBits,
	}).Info("Generated new key pair")

	return &KeyPair{
		Public:  &priv.PublicKey,
		Private: priv,
	}, nil
}

// ExportPublic serializes the public key as base64-encoded PKIX DER.
// The result round-trips through ImportPublicKey.
func (kp *KeyPair) ExportPublic() (string, error) {
	der, err := x509.MarshalPKIXPublicKey(kp.Public)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ExportPrivate serializes the private key as base64-encoded PKCS#8 DER.
func (kp *KeyPair) ExportPrivate() (string, error) {
	der, err := x509.MarshalPKCS8PrivateKey(kp.Private)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}
	return base64.StdEncoding.EncodeToString(der), nil
}

// ImportPublicKey parses base64-encoded PKIX DER public key material.
func ImportPublicKey(material string) (*rsa.PublicKey, error) {
	der, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	parsed, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	pub, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA public key", ErrInvalidKeyMaterial)
	}
	return pub, nil
}

// ImportPrivateKey parses base64-encoded PKCS#8 DER private key material.
func ImportPrivateKey(material string) (*rsa.PrivateKey, error) {
	der, err := base64.StdEncoding.DecodeString(material)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKeyMaterial, err)
	}

	priv, ok := parsed.(*rsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: not an RSA private key", ErrInvalidKeyMaterial)
	}
	return priv, nil
}
