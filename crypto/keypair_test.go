package crypto

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKeyPair(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)
	require.NotNil(t, keys)

	assert.Equal(t, KeyBits, keys.Public.N.BitLen())
	assert.Equal(t, KeyBits, keys.Private.N.BitLen())

	// Two generations must not collide.
	keys2, err := GenerateKeyPair()
	require.NoError(t, err)
	assert.NotEqual(t, keys.Public.N, keys2.Public.N)
}

func TestPublicKeyExportImportRoundTrip(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	material, err := keys.ExportPublic()
	require.NoError(t, err)
	require.NotEmpty(t, material)

	imported, err := ImportPublicKey(material)
	require.NoError(t, err)

	// The imported key must encrypt content the original private key can
	// open.
	plaintext := []byte("round trip check")
	ciphertext, err := rsa.EncryptOAEP(sha256.New(), rand.Reader, imported, plaintext, nil)
	require.NoError(t, err)

	recovered, err := rsa.DecryptOAEP(sha256.New(), rand.Reader, keys.Private, ciphertext, nil)
	require.NoError(t, err)
	assert.Equal(t, plaintext, recovered)
}

func TestPrivateKeyExportImportRoundTrip(t *testing.T) {
	keys, err := GenerateKeyPair()
	require.NoError(t, err)

	material, err := keys.ExportPrivate()
	require.NoError(t, err)

	imported, err := ImportPrivateKey(material)
	require.NoError(t, err)
	assert.True(t, keys.Private.Equal(imported))
}

func TestImportPublicKeyRejectsMalformedMaterial(t *testing.T) {
	cases := []struct {
		name     string
		material string
	}{
		{name: "empty", material: ""},
		{name: "not base64", material: "!!not-base64!!"},
		{name: "base64 garbage", material: base64.StdEncoding.EncodeToString([]byte("garbage"))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ImportPublicKey(tc.material)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
		})
	}
}

func TestImportPrivateKeyRejectsMalformedMaterial(t *testing.T) {
	_, err := ImportPrivateKey("bm90IGEga2V5")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidKeyMaterial)
}
