package chatseal

import (
	"github.com/opd-ai/chatseal/crypto"
	"github.com/opd-ai/chatseal/envelope"
	"github.com/opd-ai/chatseal/presence"
)

// Feature identifies an encryptable message kind for the degradation
// policy.
type Feature uint8

const (
	FeatureMessages Feature = iota
	FeatureTypingIndicators
	FeatureReadReceipts
	FeaturePresenceUpdates
)

// String returns a human-readable feature name for logging.
func (f Feature) String() string {
	switch f {
	case FeatureMessages:
		return "messages"
	case FeatureTypingIndicators:
		return "typing_indicators"
	case FeatureReadReceipts:
		return "read_receipts"
	case FeaturePresenceUpdates:
		return "presence_updates"
	default:
		return "unknown"
	}
}

// ShouldEncrypt is the single degradation-policy decision point. It
// returns true iff a local key pair exists on a capable platform, the
// per-feature preference is enabled, and at least one recipient's public
// key is resolvable. Every send path routes through this check before
// choosing between the encrypted and plaintext paths; fallback behavior is
// never decided ad hoc at call sites.
func (c *Client) ShouldEncrypt(feature Feature, recipients []envelope.Recipient) bool {
	c.mu.RLock()
	keyPair := c.keyPair
	c.mu.RUnlock()

	if !c.caps.Asymmetric || keyPair == nil {
		return false
	}
	if !c.featureEnabled(feature) {
		return false
	}

	for _, r := range recipients {
		if _, err := crypto.ImportPublicKey(r.PublicKey); err == nil {
			return true
		}
	}
	return false
}

func (c *Client) featureEnabled(feature Feature) bool {
	if feature == FeatureMessages {
		// Message encryption has no opt-out flag; only key and recipient
		// availability gate it.
		return true
	}
	prefs := c.adapter.Preferences()
	switch feature {
	case FeatureTypingIndicators:
		return prefs.EncryptTypingIndicators
	case FeatureReadReceipts:
		return prefs.EncryptReadReceipts
	case FeaturePresenceUpdates:
		return prefs.EncryptPresenceUpdates
	default:
		return false
	}
}

// presencePolicy adapts the degradation policy to the presence adapter's
// signal kinds.
func (c *Client) presencePolicy(kind presence.Kind, recipients []envelope.Recipient) bool {
	return c.ShouldEncrypt(featureForKind(kind), recipients)
}

func featureForKind(kind presence.Kind) Feature {
	switch kind {
	case presence.KindTypingStart, presence.KindTypingStop:
		return FeatureTypingIndicators
	case presence.KindReadReceipt:
		return FeatureReadReceipts
	default:
		return FeaturePresenceUpdates
	}
}
