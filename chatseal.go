// Package chatseal implements the end-to-end encrypted messaging envelope
// core of a presence-aware chat client.
//
// The package encrypts chat messages, typing indicators, read receipts,
// and online-status updates for multiple recipients using a hybrid scheme:
// a single-use AES-256-GCM content key seals the payload, and the content
// key is wrapped per recipient with RSA-OAEP. A single degradation policy
// decides, per call, whether the encrypted or plaintext path runs.
//
// The core performs no I/O: the caller supplies key material and a
// recipient directory, and hands produced envelopes to its own transport.
//
// Example:
//
//	options := chatseal.NewOptions()
//	options.UserID = "alice"
//	options.PublicKeyMaterial = storedPublic
//	options.PrivateKeyMaterial = storedPrivate
//
//	client, err := chatseal.New(options)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.OnEvent(func(ev presence.Event) {
//	    transport.Send(ev)
//	})
//
//	out, err := client.SendMessage("hello", recipients)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if out.Encrypted {
//	    transport.SendEnvelope(out.Envelope)
//	}
package chatseal

import (
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatseal/crypto"
	"github.com/opd-ai/chatseal/envelope"
	"github.com/opd-ai/chatseal/presence"
)

// Options contains configuration for creating a Client.
type Options struct {
	// UserID is the local user's identity in recipient directories.
	UserID string

	// PublicKeyMaterial and PrivateKeyMaterial are the exported key pair
	// handed over by the caller's secure store. Both empty means no local
	// key pair yet; the client then always degrades to plaintext until
	// RegenerateKeyPair is called.
	PublicKeyMaterial  string
	PrivateKeyMaterial string

	// Preferences are the per-feature presence encryption toggles.
	Preferences presence.Preferences

	// CacheCapacity bounds the decryption cache; zero selects the default.
	CacheCapacity int

	// TypingThrottleWindow and StatusBatchWindow override the presence
	// rate-control windows; zero selects the defaults.
	TypingThrottleWindow time.Duration
	StatusBatchWindow    time.Duration
}

// NewOptions creates a new default Options.
func NewOptions() *Options {
	return &Options{
		Preferences:   presence.DefaultPreferences(),
		CacheCapacity: envelope.DefaultCacheCapacity,
	}
}

// New creates a Client from the given options. Key material, when
// supplied, must parse; a client created without key material is valid but
// never encrypts.
func New(options *Options) (*Client, error) {
	if options == nil {
		options = NewOptions()
	}
	if options.UserID == "" {
		return nil, errors.New("chatseal: UserID is required")
	}

	var keyPair *crypto.KeyPair
	if options.PublicKeyMaterial != "" || options.PrivateKeyMaterial != "" {
		pub, err := crypto.ImportPublicKey(options.PublicKeyMaterial)
		if err != nil {
			return nil, err
		}
		priv, err := crypto.ImportPrivateKey(options.PrivateKeyMaterial)
		if err != nil {
			return nil, err
		}
		keyPair = &crypto.KeyPair{Public: pub, Private: priv}
	}

	c := &Client{
		userID:  options.UserID,
		keyPair: keyPair,
		caps:    crypto.Capability(),
		cache:   envelope.NewCache(options.CacheCapacity),
	}

	adapter, err := presence.NewAdapter(presence.Config{
		Preferences:   options.Preferences,
		ShouldEncrypt: c.presencePolicy,
		Encrypt:       envelope.Encrypt,
		Emit:          c.emitEvent,
		TypingWindow:  options.TypingThrottleWindow,
		BatchWindow:   options.StatusBatchWindow,
	})
	if err != nil {
		return nil, err
	}
	c.adapter = adapter

	logrus.WithFields(logrus.Fields{
		"function":     "New",
		"user_id":      options.UserID,
		"has_key_pair": keyPair != nil,
		"asymmetric":   c.caps.Asymmetric,
	}).Info("Client initialized")

	return c, nil
}
