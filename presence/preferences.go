package presence

// Preferences holds the per-user, per-feature encryption toggles. The
// struct round-trips to and from the external settings store unchanged.
type Preferences struct {
	EncryptReadReceipts     bool `json:"encryptReadReceipts"`
	EncryptTypingIndicators bool `json:"encryptTypingIndicators"`
	EncryptPresenceUpdates  bool `json:"encryptPresenceUpdates"`
}

// DefaultPreferences enables encryption for every presence feature.
func DefaultPreferences() Preferences {
	return Preferences{
		EncryptReadReceipts:     true,
		EncryptTypingIndicators: true,
		EncryptPresenceUpdates:  true,
	}
}

// EnabledFor reports whether encryption is turned on for the given signal
// kind. When it is off the degradation policy is not even consulted; the
// plaintext event is emitted directly.
func (p Preferences) EnabledFor(kind Kind) bool {
	switch kind {
	case KindTypingStart, KindTypingStop:
		return p.EncryptTypingIndicators
	case KindReadReceipt:
		return p.EncryptReadReceipts
	case KindStatusUpdate:
		return p.EncryptPresenceUpdates
	default:
		return false
	}
}
