package models

import (
	"time"
)

// NotificationType tags the union of notification kinds.
type NotificationType string

const (
	NotificationSessionInvite         NotificationType = "session_invite"
	NotificationFriendRequestReceived NotificationType = "friend_request_received"
	NotificationFriendRequestAccepted NotificationType = "friend_request_accepted"
	NotificationSessionJoin           NotificationType = "session_join"
	NotificationSessionEndingSoon     NotificationType = "session_ending_soon"
	NotificationTagAdd                NotificationType = "tag_add"
	NotificationOwnershipTransfer     NotificationType = "ownership_transfer"
)

// NotificationRecord is the raw server row: foreign-key style references
// only. The enricher turns it into a display-ready Notification.
type NotificationRecord struct {
	// ID is the notification's unique identifier
	ID string

	// Type is the notification kind
	Type NotificationType

	// RecipientID is the user the notification is for
	RecipientID string

	// ActorID optionally references the user who triggered it
	ActorID string

	// SessionID optionally references a session
	SessionID string

	// TagID optionally references a tag
	TagID string

	// CreatedAt is when the server appended the record
	CreatedAt time.Time

	// IsRead is flipped by the client, never back
	IsRead bool
}

// ActorRef is the projection of a user carried by a display notification.
type ActorRef struct {
	ID       string
	Username string
}

// SessionRef is the projection of a session carried by a display notification.
type SessionRef struct {
	ID    string
	Title string
	Emoji string
}

// TagRef is the projection of a tag carried by a display notification.
type TagRef struct {
	ID   string
	Name string
}

// Notification is a display-ready notification. Reference fields are nil
// when the referenced entity could not be resolved; the notification still
// renders with whatever resolved.
type Notification struct {
	ID        string
	Type      NotificationType
	Actor     *ActorRef
	Session   *SessionRef
	Tag       *TagRef
	Timestamp time.Time
	IsRead    bool
}
