package models

import (
	"time"
)

// SystemSenderID marks locally generated system chat messages. They are
// never persisted and never echoed by the push channel.
const SystemSenderID = "system"

// SessionMessage is a chat message within a session.
type SessionMessage struct {
	// ID is server-assigned. Unconfirmed local messages carry a
	// temporary client id until the push echo replaces them.
	ID string

	// SessionID is the session the message belongs to
	SessionID string

	// SenderID is the author's user id
	SenderID string

	// SenderName is the author's display name, resolved by enrichment
	SenderName string

	// Text is the message body
	Text string

	// CreatedAt orders messages within a session
	CreatedAt time.Time

	// Pending is true for a local placeholder awaiting its push echo
	Pending bool
}

// DirectMessage is a message within a two-party conversation.
type DirectMessage struct {
	// ID is server-assigned; placeholders carry a temporary client id
	ID string

	// ConversationID is the conversation the message belongs to
	ConversationID string

	// SenderID is the author's user id
	SenderID string

	// Text is the message body
	Text string

	// Timestamp orders messages within a conversation
	Timestamp time.Time

	// Pending is true for a local placeholder awaiting its push echo
	Pending bool
}

// Conversation is a thread between exactly two users. At most one
// conversation exists per unordered participant pair.
type Conversation struct {
	// ID is the conversation's unique identifier
	ID string

	// ParticipantIDs holds both user ids, sorted
	ParticipantIDs []string

	// Messages are ordered by timestamp ascending
	Messages []*DirectMessage

	// UnreadCount is maintained client-side
	UnreadCount int
}
