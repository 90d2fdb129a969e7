package presence

import (
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/opd-ai/chatseal/envelope"
)

// Default rate-control windows.
const (
	DefaultTypingWindow = 300 * time.Millisecond
	DefaultBatchWindow  = 150 * time.Millisecond
)

// EncryptFunc seals a presence payload for the given recipients.
type EncryptFunc func(plaintext []byte, recipients []envelope.Recipient) (*envelope.Envelope, error)

// PolicyFunc is the caller's degradation policy decision point.
type PolicyFunc func(kind Kind, recipients []envelope.Recipient) bool

// EmitFunc receives finished events for delivery over the caller's
// transport.
type EmitFunc func(Event)

// Config configures an Adapter.
type Config struct {
	Preferences   Preferences
	ShouldEncrypt PolicyFunc
	Encrypt       EncryptFunc
	Emit          EmitFunc

	// TypingWindow is the typing-start debounce window; zero selects
	// DefaultTypingWindow.
	TypingWindow time.Duration

	// BatchWindow is the status-update coalescing window; zero selects
	// DefaultBatchWindow.
	BatchWindow time.Duration
}

// Adapter throttles, batches, and encrypts presence signals before
// emitting them. The throttle map and batch buffer are the only mutable
// state and are guarded by a single mutex; pending timers are cancelled by
// a superseding call or by Stop.
type Adapter struct {
	mu      sync.Mutex
	prefs   Preferences
	policy  PolicyFunc
	encrypt EncryptFunc
	emit    EmitFunc

	typingWindow time.Duration
	batchWindow  time.Duration

	pending    map[throttleKey]*pendingSignal
	batch      []statusItem
	batchTimer *time.Timer
	stopped    bool
}

// throttleKey scopes debouncing so unrelated conversations never
// interfere.
type throttleKey struct {
	kind           Kind
	conversationID string
	subjectID      string
}

type pendingSignal struct {
	timer      *time.Timer
	recipients []envelope.Recipient
}

type statusItem struct {
	subjectID  string
	recipients []envelope.Recipient
}

// NewAdapter creates a presence adapter.
func NewAdapter(cfg Config) (*Adapter, error) {
	if cfg.ShouldEncrypt == nil || cfg.Encrypt == nil || cfg.Emit == nil {
		return nil, errors.New("presence: ShouldEncrypt, Encrypt, and Emit are required")
	}
	if cfg.TypingWindow <= 0 {
		cfg.TypingWindow = DefaultTypingWindow
	}
	if cfg.BatchWindow <= 0 {
		cfg.BatchWindow = DefaultBatchWindow
	}

	return &Adapter{
		prefs:        cfg.Preferences,
		policy:       cfg.ShouldEncrypt,
		encrypt:      cfg.Encrypt,
		emit:         cfg.Emit,
		typingWindow: cfg.TypingWindow,
		batchWindow:  cfg.BatchWindow,
		pending:      make(map[throttleKey]*pendingSignal),
	}, nil
}

// SetPreferences swaps the per-feature toggles at runtime.
func (a *Adapter) SetPreferences(p Preferences) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.prefs = p
}

// Preferences returns the current per-feature toggles.
func (a *Adapter) Preferences() Preferences {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.prefs
}

// TypingStart signals that the subject started typing in a conversation.
// Calls within the debounce window supersede each other; only the latest
// pending call actually emits.
func (a *Adapter) TypingStart(conversationID, subjectID string, recipients []envelope.Recipient) {
	key := throttleKey{kind: KindTypingStart, conversationID: conversationID, subjectID: subjectID}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	if p, ok := a.pending[key]; ok {
		// Supersede: the earlier call is discarded, not delayed.
		p.timer.Stop()
	}
	p := &pendingSignal{recipients: recipients}
	p.timer = time.AfterFunc(a.typingWindow, func() { a.fireTyping(key) })
	a.pending[key] = p
}

// TypingStop signals that the subject stopped typing. It cancels any
// pending typing-start for the same key and dispatches immediately.
func (a *Adapter) TypingStop(conversationID, subjectID string, recipients []envelope.Recipient) {
	startKey := throttleKey{kind: KindTypingStart, conversationID: conversationID, subjectID: subjectID}

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	if p, ok := a.pending[startKey]; ok {
		p.timer.Stop()
		delete(a.pending, startKey)
	}
	a.mu.Unlock()

	a.dispatch(KindTypingStop, conversationID, subjectID, recipients)
}

// ReadReceipt signals that the subject read a conversation. Receipts are
// latency-sensitive and dispatch immediately.
func (a *Adapter) ReadReceipt(conversationID, subjectID string, recipients []envelope.Recipient) {
	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		return
	}
	a.mu.Unlock()

	a.dispatch(KindReadReceipt, conversationID, subjectID, recipients)
}

// StatusUpdate queues an online-status update. Updates within the batch
// window coalesce into one job and are processed together.
func (a *Adapter) StatusUpdate(subjectID string, recipients []envelope.Recipient) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}

	a.batch = append(a.batch, statusItem{subjectID: subjectID, recipients: recipients})
	if a.batchTimer == nil {
		a.batchTimer = time.AfterFunc(a.batchWindow, a.flushBatch)
	}
}

// Stop cancels all pending timers and discards queued work. The adapter
// emits nothing after Stop returns.
func (a *Adapter) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stopped {
		return
	}
	a.stopped = true

	for key, p := range a.pending {
		p.timer.Stop()
		delete(a.pending, key)
	}
	if a.batchTimer != nil {
		a.batchTimer.Stop()
		a.batchTimer = nil
	}
	a.batch = nil

	logrus.WithFields(logrus.Fields{
		"function": "Stop",
	}).Debug("Presence adapter stopped")
}

// fireTyping runs when a typing-start debounce window expires.
func (a *Adapter) fireTyping(key throttleKey) {
	a.mu.Lock()
	p, ok := a.pending[key]
	if !ok || a.stopped {
		a.mu.Unlock()
		return
	}
	delete(a.pending, key)
	a.mu.Unlock()

	a.dispatch(key.kind, key.conversationID, key.subjectID, p.recipients)
}

// flushBatch processes one coalesced status-update job. Items are handled
// independently; one failure is logged and must not fail the rest.
func (a *Adapter) flushBatch() {
	a.mu.Lock()
	items := a.batch
	a.batch = nil
	a.batchTimer = nil
	stopped := a.stopped
	a.mu.Unlock()

	if stopped || len(items) == 0 {
		return
	}

	jobID := uuid.NewString()
	logrus.WithFields(logrus.Fields{
		"function": "flushBatch",
		"job_id":   jobID,
		"items":    len(items),
	}).Debug("Processing status update batch")

	for _, item := range items {
		a.dispatch(KindStatusUpdate, "", item.subjectID, item.recipients)
	}
}

// dispatch builds and emits one presence event, choosing the encrypted or
// plaintext variant.
func (a *Adapter) dispatch(kind Kind, conversationID, subjectID string, recipients []envelope.Recipient) {
	payload := &Payload{
		SubjectID:      subjectID,
		ConversationID: conversationID,
		Timestamp:      time.Now().UnixMilli(),
	}

	event := Event{
		ID:             uuid.NewString(),
		Kind:           kind,
		ConversationID: conversationID,
		SubjectID:      subjectID,
	}

	a.mu.Lock()
	prefs := a.prefs
	a.mu.Unlock()

	if !prefs.EnabledFor(kind) || !a.policy(kind, recipients) {
		event.Encrypted = false
		event.Payload = payload
		a.emit(event)
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"kind":     kind.String(),
			"error":    err.Error(),
		}).Warn("Presence payload marshal failed, emitting plaintext event")
		event.Encrypted = false
		event.Payload = payload
		a.emit(event)
		return
	}

	env, err := a.encrypt(data, recipients)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "dispatch",
			"kind":     kind.String(),
			"error":    err.Error(),
		}).Warn("Presence encryption failed, emitting plaintext event")
		event.Encrypted = false
		event.Payload = payload
		a.emit(event)
		return
	}

	event.Encrypted = true
	event.Envelope = env
	a.emit(event)
}
