package presence

import (
	"github.com/opd-ai/chatseal/envelope"
)

// Kind identifies a presence signal variant.
type Kind uint8

const (
	KindTypingStart Kind = iota
	KindTypingStop
	KindReadReceipt
	KindStatusUpdate
)

// String returns a human-readable kind name for logging.
func (k Kind) String() string {
	switch k {
	case KindTypingStart:
		return "typing_start"
	case KindTypingStop:
		return "typing_stop"
	case KindReadReceipt:
		return "read_receipt"
	case KindStatusUpdate:
		return "status_update"
	default:
		return "unknown"
	}
}

// Payload is the JSON body sealed into a presence envelope. The field
// names are part of the wire contract.
type Payload struct {
	SubjectID      string `json:"subjectId"`
	ConversationID string `json:"conversationId,omitempty"`
	Timestamp      int64  `json:"timestamp"`
}

// Event is what the adapter hands to the caller's transport. Exactly one
// of Envelope and Payload is set, according to Encrypted: the plaintext
// fallback keeps the same event shape with no envelope wrapper.
type Event struct {
	ID             string
	Kind           Kind
	ConversationID string
	SubjectID      string
	Encrypted      bool
	Envelope       *envelope.Envelope
	Payload        *Payload
}
