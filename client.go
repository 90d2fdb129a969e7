package chatseal

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatseal/crypto"
	"github.com/opd-ai/chatseal/envelope"
	"github.com/opd-ai/chatseal/presence"
)

// EventCallback receives presence events for delivery over the caller's
// transport.
type EventCallback func(presence.Event)

// Client is the envelope protocol core. It owns the decryption cache and
// the presence adapter; all mutable state is guarded for concurrent use,
// though the protocol itself assumes no cross-call ordering (envelopes may
// be decrypted out of send order).
type Client struct {
	mu      sync.RWMutex
	userID  string
	keyPair *crypto.KeyPair
	caps    crypto.Capabilities

	cache   *envelope.Cache
	adapter *presence.Adapter

	eventCallback EventCallback
	closed        bool
}

// UserID returns the local identity.
func (c *Client) UserID() string {
	return c.userID
}

// HasKeyPair reports whether a local asymmetric key pair is present.
func (c *Client) HasKeyPair() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.keyPair != nil
}

// ExportPublicKey returns the local public key material for the caller's
// directory, or an empty string when no key pair exists yet.
func (c *Client) ExportPublicKey() (string, error) {
	c.mu.RLock()
	kp := c.keyPair
	c.mu.RUnlock()
	if kp == nil {
		return "", nil
	}
	return kp.ExportPublic()
}

// ExportPrivateKey returns the private key material for the caller's
// secure store. The core never persists it.
func (c *Client) ExportPrivateKey() (string, error) {
	c.mu.RLock()
	kp := c.keyPair
	c.mu.RUnlock()
	if kp == nil {
		return "", nil
	}
	return kp.ExportPrivate()
}

// RegenerateKeyPair replaces the local key pair wholesale. Envelopes
// wrapped for the old key become undecryptable; that is the accepted
// tradeoff of regeneration. The decryption cache is purged so stale
// plaintexts do not outlive the key they were unwrapped with.
func (c *Client) RegenerateKeyPair() error {
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.keyPair = keys
	c.mu.Unlock()
	c.cache.Purge()

	logrus.WithFields(logrus.Fields{
		"function": "RegenerateKeyPair",
		"user_id":  c.userID,
	}).Info("Key pair regenerated, prior envelopes are no longer decryptable")
	return nil
}

// OnEvent registers the callback that receives presence events. Passing
// nil unregisters it.
func (c *Client) OnEvent(callback EventCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.eventCallback = callback
}

// SetPreferences swaps the per-feature presence toggles at runtime.
func (c *Client) SetPreferences(p presence.Preferences) {
	c.adapter.SetPreferences(p)
}

// Preferences returns the current per-feature presence toggles.
func (c *Client) Preferences() presence.Preferences {
	return c.adapter.Preferences()
}

// Close stops the presence timers and releases cached plaintexts. The
// client emits nothing after Close returns.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()

	c.adapter.Stop()
	c.cache.Purge()
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

// emitEvent forwards an adapter event to the registered callback.
func (c *Client) emitEvent(ev presence.Event) {
	c.mu.RLock()
	cb := c.eventCallback
	c.mu.RUnlock()
	if cb != nil {
		cb(ev)
	}
}
