package models

import (
	"time"
)

// SessionType identifies one of the four session flavours.
type SessionType string

const (
	// SessionTypeVibe is a social gathering
	SessionTypeVibe SessionType = "vibe"

	// SessionTypeSeek is a request for help
	SessionTypeSeek SessionType = "seek"

	// SessionTypeCookie is a skill-sharing offer
	SessionTypeCookie SessionType = "cookie"

	// SessionTypeBorrow is an item loan
	SessionTypeBorrow SessionType = "borrow"
)

// SessionStatus represents the server-authoritative state of a session.
// The only legal transition is active -> closed.
type SessionStatus string

const (
	// SessionStatusActive indicates a session is live
	SessionStatusActive SessionStatus = "active"

	// SessionStatusClosed indicates a session has ended
	SessionStatusClosed SessionStatus = "closed"
)

// Privacy controls who may see a session on the map.
type Privacy string

const (
	// PrivacyPublic sessions are visible to everyone
	PrivacyPublic Privacy = "public"

	// PrivacyPrivate sessions are visible only to the creator,
	// participants, and members of the session's visibility tags
	PrivacyPrivate Privacy = "private"
)

// Role is the part a participant plays in a session.
type Role string

const (
	RoleSeeking     Role = "seeking"
	RoleOffering    Role = "offering"
	RoleParticipant Role = "participant"
	RoleGiver       Role = "giver"
)

// Urgency applies to borrow sessions.
type Urgency string

const (
	UrgencyLow    Urgency = "Low"
	UrgencyMedium Urgency = "Medium"
	UrgencyHigh   Urgency = "High"
)

// HelpCategory applies to seek sessions.
type HelpCategory string

const (
	HelpCategoryAcademic HelpCategory = "Academic"
	HelpCategoryProject  HelpCategory = "Project"
	HelpCategoryTech     HelpCategory = "Tech"
	HelpCategoryGeneral  HelpCategory = "General"
)

// Session is an ephemeral, geolocated social unit. The backend is the
// single source of truth for membership and status; clients only reflect it.
type Session struct {
	// ID is assigned by the server and immutable
	ID string

	// Title is the short display name
	Title string

	// Description is optional free text
	Description string

	// Lat and Lng locate the session on the map
	Lat float64
	Lng float64

	// Type is fixed at creation
	Type SessionType

	// Emoji is used as the map marker
	Emoji string

	// EventTime is the start instant; may be in the future (scheduled)
	EventTime time.Time

	// DurationMinutes is how long the session runs from EventTime
	DurationMinutes int

	// Status is server-authoritative
	Status SessionStatus

	// CreatorID is the user who created the session
	CreatorID string

	// CreatorName is the creator's display name, resolved by enrichment.
	// Not part of the stored row.
	CreatorName string

	// Participants holds user ids; the creator is always a member
	// while the session is active
	Participants []string

	// ParticipantRoles maps user id to role; keys are a subset of Participants
	ParticipantRoles map[string]Role

	// Privacy gates map visibility
	Privacy Privacy

	// VisibleToTagIDs is meaningful only when Privacy is private
	VisibleToTagIDs []string

	// Type-specific optional fields
	SkillTag        string
	Urgency         Urgency
	ReturnTime      *time.Time
	ExpectedOutcome string
	HelpCategory    HelpCategory
	Flow            Role
}

// HasParticipant reports whether userID is a member of the session.
func (s *Session) HasParticipant(userID string) bool {
	for _, id := range s.Participants {
		if id == userID {
			return true
		}
	}
	return false
}
