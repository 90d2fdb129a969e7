// Package presence adapts the envelope engine for ephemeral low-latency
// signals: typing indicators, read receipts, and online-status updates.
//
// # Overview
//
// Presence signals share the chat message envelope mechanism but tolerate
// loss and favor latency, so the adapter adds rate control on top of
// encryption:
//
//   - Typing-start signals are debounced per (kind, conversation, subject):
//     repeated calls within the throttle window collapse into the latest
//     one. Earlier calls in the window are discarded, not delayed.
//   - Status updates are batched: updates arriving within the batch window
//     coalesce into one job and are processed together, each item
//     independently, to amortize encryption cost.
//   - Read receipts and typing-stop signals dispatch immediately;
//     typing-stop also cancels a pending typing-start for its key.
//
// Each signal kind is gated by a per-feature preference flag and by the
// caller's degradation policy. When either says no, the adapter emits the
// plaintext equivalent event with the same shape. That is the documented
// fallback, not an error state.
//
// # Example
//
//	adapter, err := presence.NewAdapter(presence.Config{
//	    Preferences:   presence.DefaultPreferences(),
//	    ShouldEncrypt: policy.Check,
//	    Encrypt:       envelope.Encrypt,
//	    Emit:          func(ev presence.Event) { transport.Send(ev) },
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer adapter.Stop()
//
//	adapter.TypingStart("conv-1", "self-user", recipients)
package presence
