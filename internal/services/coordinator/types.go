package coordinator

import (
	"time"

	"github.com/vibemap/vibemap/internal/common/clock"
	"github.com/vibemap/vibemap/internal/common/uuid"
	"github.com/vibemap/vibemap/internal/lifecycle"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/friend"
	"github.com/vibemap/vibemap/internal/repositories/message"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
)

// Config holds dependencies for the coordinator service
type Config struct {
	// UserID is the local user the coordinator acts for
	UserID string

	// Username is the local user's display name
	Username string

	// Repositories
	SessionRepo      session.Repository
	ProfileRepo      profile.Repository
	TagRepo          tag.Repository
	FriendRepo       friend.Repository
	MessageRepo      message.Repository
	NotificationRepo notification.Repository

	// Feed is the push channel transport
	Feed *realtime.Feed

	// Clock for time-sensitive operations
	Clock clock.Clock

	// UUID generator for temporary client-side message ids
	UUID uuid.UUID

	// TickInterval drives the lifecycle clock. Zero means the default.
	TickInterval time.Duration
}

// CreateSessionInput carries the draft the user filled in.
type CreateSessionInput struct {
	Session *models.Session
}

// CreateSessionOutput carries the canonical session.
type CreateSessionOutput struct {
	Session *models.Session

	// InvitesSent counts invite notifications fanned out for a private
	// session
	InvitesSent int
}

// JoinSessionInput identifies the session and the requested role.
type JoinSessionInput struct {
	SessionID string
	Role      models.Role
}

// JoinSessionOutput reports the join outcome.
type JoinSessionOutput struct {
	Session *models.Session

	// AlreadyParticipant is true when the server treated the join as a
	// no-op repeat
	AlreadyParticipant bool
}

// LeaveSessionInput identifies the session to leave.
type LeaveSessionInput struct {
	SessionID string
}

// LeaveSessionOutput reports the leave outcome.
type LeaveSessionOutput struct {
	// SessionClosed is true when the server closed the session because
	// the last participant left
	SessionClosed bool

	// VouchOpportunity is set when leaving a skill-share session
	// creates a chance to vouch for its host
	VouchOpportunity *VouchOpportunity
}

// VouchOpportunity points at a host who can be vouched for after a
// skill-share session.
type VouchOpportunity struct {
	HostID   string
	HostName string
	Skill    string
}

// TransferOwnershipInput hands a session to another participant.
type TransferOwnershipInput struct {
	SessionID string
	NewOwner  string
}

// TransferOwnershipOutput reports the transfer and its side effects
// independently. The transfer itself succeeding with a failed side
// effect is not an error.
type TransferOwnershipOutput struct {
	Session *models.Session

	// MessageSent is true when the announcement chat message reached
	// the session
	MessageSent bool

	// NotificationSent is true when the new owner was notified
	NotificationSent bool
}

// ExtendSessionInput adds minutes to a session's duration.
type ExtendSessionInput struct {
	SessionID string
	Minutes   int
}

// CloseSessionInput ends a session early.
type CloseSessionInput struct {
	SessionID string
}

// SessionView pairs a session with its computed lifecycle status.
type SessionView struct {
	Session *models.Session
	Status  lifecycle.Status
}
