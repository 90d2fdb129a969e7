package presence

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/chatseal/envelope"
)

// eventCollector records emitted events for assertions.
type eventCollector struct {
	mu     sync.Mutex
	events []Event
}

func (c *eventCollector) emit(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}

func stubEncrypt(plaintext []byte, recipients []envelope.Recipient) (*envelope.Envelope, error) {
	return &envelope.Envelope{
		EncryptedContent: "c3R1Yg==",
		IV:               "aXZpdml2aXZpdg==",
		RecipientKeys:    map[string]string{"peer": "a2V5"},
		IsEncrypted:      true,
	}, nil
}

func allowAll(Kind, []envelope.Recipient) bool { return true }

func newTestAdapter(t *testing.T, cfg Config) (*Adapter, *eventCollector) {
	t.Helper()
	collector := &eventCollector{}
	if cfg.ShouldEncrypt == nil {
		cfg.ShouldEncrypt = allowAll
	}
	if cfg.Encrypt == nil {
		cfg.Encrypt = stubEncrypt
	}
	cfg.Emit = collector.emit
	if cfg.TypingWindow == 0 {
		cfg.TypingWindow = 15 * time.Millisecond
	}
	if cfg.BatchWindow == 0 {
		cfg.BatchWindow = 15 * time.Millisecond
	}
	if cfg.Preferences == (Preferences{}) {
		cfg.Preferences = DefaultPreferences()
	}

	adapter, err := NewAdapter(cfg)
	require.NoError(t, err)
	t.Cleanup(adapter.Stop)
	return adapter, collector
}

var peers = []envelope.Recipient{{UserID: "peer", PublicKey: "material"}}

func TestNewAdapterRequiresCallbacks(t *testing.T) {
	_, err := NewAdapter(Config{})
	assert.Error(t, err)
}

func TestTypingStartDebounce(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{})

	// Five rapid calls in one window collapse into a single event.
	for i := 0; i < 5; i++ {
		adapter.TypingStart("conv-1", "alice", peers)
	}
	time.Sleep(80 * time.Millisecond)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, KindTypingStart, events[0].Kind)
	assert.Equal(t, "conv-1", events[0].ConversationID)
	assert.Equal(t, "alice", events[0].SubjectID)
	assert.True(t, events[0].Encrypted)
	assert.NotNil(t, events[0].Envelope)
	assert.Nil(t, events[0].Payload)
}

func TestTypingThrottleScopedPerConversation(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{})

	adapter.TypingStart("conv-1", "alice", peers)
	adapter.TypingStart("conv-2", "alice", peers)
	adapter.TypingStart("conv-1", "bob", peers)
	time.Sleep(80 * time.Millisecond)

	events := collector.snapshot()
	assert.Len(t, events, 3, "distinct (conversation, subject) keys never interfere")
}

func TestTypingStopCancelsPendingStart(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{TypingWindow: 50 * time.Millisecond})

	adapter.TypingStart("conv-1", "alice", peers)
	adapter.TypingStop("conv-1", "alice", peers)
	time.Sleep(120 * time.Millisecond)

	events := collector.snapshot()
	require.Len(t, events, 1, "the pending start must be cancelled")
	assert.Equal(t, KindTypingStop, events[0].Kind)
}

func TestReadReceiptDispatchesImmediately(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{})

	adapter.ReadReceipt("conv-1", "alice", peers)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, KindReadReceipt, events[0].Kind)
	assert.True(t, events[0].Encrypted)
}

func TestStatusUpdateBatching(t *testing.T) {
	encrypts := 0
	var mu sync.Mutex
	adapter, collector := newTestAdapter(t, Config{
		Encrypt: func(plaintext []byte, recipients []envelope.Recipient) (*envelope.Envelope, error) {
			mu.Lock()
			encrypts++
			mu.Unlock()
			return stubEncrypt(plaintext, recipients)
		},
	})

	adapter.StatusUpdate("alice", peers)
	adapter.StatusUpdate("bob", peers)
	adapter.StatusUpdate("carol", peers)
	time.Sleep(80 * time.Millisecond)

	events := collector.snapshot()
	require.Len(t, events, 3, "one batch job processes every coalesced item")
	for _, ev := range events {
		assert.Equal(t, KindStatusUpdate, ev.Kind)
		assert.True(t, ev.Encrypted)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 3, encrypts)
}

func TestStatusBatchItemFailureIsIsolated(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{
		Encrypt: func(plaintext []byte, recipients []envelope.Recipient) (*envelope.Envelope, error) {
			if len(recipients) == 0 {
				return nil, errors.New("no usable recipients")
			}
			return stubEncrypt(plaintext, recipients)
		},
	})

	adapter.StatusUpdate("alice", peers)
	adapter.StatusUpdate("bob", nil) // this item fails to encrypt
	adapter.StatusUpdate("carol", peers)
	time.Sleep(80 * time.Millisecond)

	events := collector.snapshot()
	require.Len(t, events, 3, "one item failure must not fail the batch")

	encrypted := 0
	for _, ev := range events {
		if ev.Encrypted {
			encrypted++
		} else {
			assert.Equal(t, "bob", ev.SubjectID)
			assert.NotNil(t, ev.Payload, "failed item falls back to the plaintext shape")
		}
	}
	assert.Equal(t, 2, encrypted)
}

func TestDisabledPreferenceEmitsPlaintext(t *testing.T) {
	prefs := DefaultPreferences()
	prefs.EncryptTypingIndicators = false
	adapter, collector := newTestAdapter(t, Config{Preferences: prefs})

	adapter.TypingStart("conv-1", "alice", peers)
	time.Sleep(80 * time.Millisecond)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].Encrypted)
	assert.Nil(t, events[0].Envelope)
	require.NotNil(t, events[0].Payload)
	assert.Equal(t, "alice", events[0].Payload.SubjectID)
	assert.Equal(t, "conv-1", events[0].Payload.ConversationID)
	assert.NotZero(t, events[0].Payload.Timestamp)
}

func TestDeniedPolicyEmitsPlaintext(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{
		ShouldEncrypt: func(Kind, []envelope.Recipient) bool { return false },
	})

	adapter.ReadReceipt("conv-1", "alice", peers)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].Encrypted)
	assert.NotNil(t, events[0].Payload)
}

func TestEncryptionFailureFallsBackToPlaintext(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{
		Encrypt: func([]byte, []envelope.Recipient) (*envelope.Envelope, error) {
			return nil, errors.New("zero usable recipients")
		},
	})

	adapter.ReadReceipt("conv-1", "alice", peers)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].Encrypted)
	assert.NotNil(t, events[0].Payload)
}

func TestStopDiscardsPendingWork(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{TypingWindow: 30 * time.Millisecond})

	adapter.TypingStart("conv-1", "alice", peers)
	adapter.StatusUpdate("alice", peers)
	adapter.Stop()
	time.Sleep(100 * time.Millisecond)

	assert.Empty(t, collector.snapshot(), "nothing emits after Stop")

	// Calls after Stop are ignored.
	adapter.TypingStart("conv-1", "alice", peers)
	adapter.ReadReceipt("conv-1", "alice", peers)
	adapter.StatusUpdate("alice", peers)
	time.Sleep(80 * time.Millisecond)
	assert.Empty(t, collector.snapshot())
}

func TestSetPreferencesTakesEffect(t *testing.T) {
	adapter, collector := newTestAdapter(t, Config{})

	prefs := DefaultPreferences()
	prefs.EncryptReadReceipts = false
	adapter.SetPreferences(prefs)
	assert.Equal(t, prefs, adapter.Preferences())

	adapter.ReadReceipt("conv-1", "alice", peers)

	events := collector.snapshot()
	require.Len(t, events, 1)
	assert.False(t, events[0].Encrypted)
}
