package envelope

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWireShapeFieldNames(t *testing.T) {
	alice := newTestIdentity(t, "alice")
	env, err := Encrypt([]byte("wire check"), []Recipient{alice.recipient()})
	require.NoError(t, err)

	data, err := env.Marshal()
	require.NoError(t, err)

	// The wire shape is a compatibility contract: exactly these keys.
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Len(t, raw, 4)
	assert.Contains(t, raw, "encryptedContent")
	assert.Contains(t, raw, "iv")
	assert.Contains(t, raw, "recipientKeys")
	assert.Contains(t, raw, "isEncrypted")
}

func TestParseEnvelopeRoundTrip(t *testing.T) {
	alice := newTestIdentity(t, "alice")
	env, err := Encrypt([]byte("serialize me"), []Recipient{alice.recipient()})
	require.NoError(t, err)

	data, err := env.Marshal()
	require.NoError(t, err)

	parsed, err := ParseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, env, parsed)

	plaintext, err := Decrypt(parsed, "alice", alice.keys.Private)
	require.NoError(t, err)
	assert.Equal(t, []byte("serialize me"), plaintext)
}

func TestParseEnvelopeRejectsMalformedInput(t *testing.T) {
	cases := []struct {
		name string
		data string
	}{
		{name: "not json", data: "not json at all"},
		{name: "missing content", data: `{"iv":"aXY=","recipientKeys":{"a":"aw=="},"isEncrypted":true}`},
		{name: "missing iv", data: `{"encryptedContent":"Yw==","recipientKeys":{"a":"aw=="},"isEncrypted":true}`},
		{name: "empty recipient keys", data: `{"encryptedContent":"Yw==","iv":"aXY=","recipientKeys":{},"isEncrypted":true}`},
		{name: "content not base64", data: `{"encryptedContent":"%%","iv":"aXY=","recipientKeys":{"a":"aw=="},"isEncrypted":true}`},
		{name: "iv not base64", data: `{"encryptedContent":"Yw==","iv":"%%","recipientKeys":{"a":"aw=="},"isEncrypted":true}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseEnvelope([]byte(tc.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestParseEnvelopeAcceptsPlaintextShape(t *testing.T) {
	// isEncrypted=false relaxes the structural invariants; the shape is
	// shared with the plaintext fallback path.
	env, err := ParseEnvelope([]byte(`{"encryptedContent":"","iv":"","recipientKeys":{},"isEncrypted":false}`))
	require.NoError(t, err)
	assert.False(t, env.IsEncrypted)
}
