package chatseal

import (
	"github.com/opd-ai/chatseal/envelope"
)

// TypingStart signals that the local user started typing in a
// conversation. Repeated calls within the throttle window collapse into
// the latest one.
func (c *Client) TypingStart(conversationID string, recipients []envelope.Recipient) {
	if c.isClosed() {
		return
	}
	c.adapter.TypingStart(conversationID, c.userID, recipients)
}

// TypingStop signals that the local user stopped typing, cancelling any
// pending typing-start for the conversation.
func (c *Client) TypingStop(conversationID string, recipients []envelope.Recipient) {
	if c.isClosed() {
		return
	}
	c.adapter.TypingStop(conversationID, c.userID, recipients)
}

// ReadReceipt signals that the local user read a conversation.
func (c *Client) ReadReceipt(conversationID string, recipients []envelope.Recipient) {
	if c.isClosed() {
		return
	}
	c.adapter.ReadReceipt(conversationID, c.userID, recipients)
}

// StatusUpdate broadcasts the local user's online status. Updates within
// the batch window coalesce into one job.
func (c *Client) StatusUpdate(recipients []envelope.Recipient) {
	if c.isClosed() {
		return
	}
	c.adapter.StatusUpdate(c.userID, recipients)
}
