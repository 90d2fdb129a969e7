// Package envelope implements the hybrid encryption envelope used for chat
// messages and presence signals.
//
// # Overview
//
// Every envelope is produced with a fresh single-use AES-256-GCM content
// key and a fresh 96-bit IV. The payload is sealed under that key, and the
// raw key bytes are wrapped once per recipient with RSA-OAEP (SHA-256) so
// that only listed recipients can recover it. GCM's authentication tag is
// the integrity guarantee; there is no separate signature step.
//
// # Wire shape
//
// Envelopes serialize to a fixed JSON structure for interoperability:
//
//	{
//	    "encryptedContent": "<base64>",
//	    "iv": "<base64>",
//	    "recipientKeys": { "<userId>": "<base64 wrapped key>" },
//	    "isEncrypted": true
//	}
//
// A recipient absent from recipientKeys cannot decrypt the envelope and
// receives ErrNoRecipientKey.
//
// # Core components
//
//   - Encrypt / Decrypt: the hybrid encrypt/decrypt algorithm
//   - Cache: bounded memoization of repeated decrypt operations
//   - SealFallback / OpenFallback: single-device password cipher for
//     platforms without asymmetric primitives
//
// # Example
//
//	env, err := envelope.Encrypt([]byte("hello"), recipients)
//	if err != nil {
//	    // zero usable recipients; apply the degradation policy
//	}
//	plaintext, err := envelope.Decrypt(env, selfUserID, privateKey)
package envelope
