package session

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis session repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// CreateSessionInput holds the draft to persist. ID and Status are
// assigned by the repository.
type CreateSessionInput struct {
	Session *models.Session
}

// CreateSessionOutput carries the canonical row as stored.
type CreateSessionOutput struct {
	Session *models.Session
}

// GetSessionInput identifies a session.
type GetSessionInput struct {
	SessionID string
}

// FetchActiveSessionsInput has no parameters yet.
type FetchActiveSessionsInput struct{}

// FetchActiveSessionsOutput carries all active sessions, newest first.
type FetchActiveSessionsOutput struct {
	Sessions []*models.Session
}

// UpdateSessionInput is a partial update; nil fields are left alone.
type UpdateSessionInput struct {
	SessionID string

	DurationMinutes  *int
	Status           *models.SessionStatus
	CreatorID        *string
	Participants     []string
	ParticipantRoles map[string]models.Role
}

// UpdateSessionOutput carries the row after the update.
type UpdateSessionOutput struct {
	Session *models.Session
}

// DeleteSessionInput identifies the session to remove.
type DeleteSessionInput struct {
	SessionID string
}

// JoinSessionInput adds UserID to a session with a requested role. The
// server may assign a different role than requested.
type JoinSessionInput struct {
	SessionID string
	UserID    string
	Role      models.Role
}

// JoinSessionOutput carries the authoritative membership state. The
// client replaces its local fields with these, never merges.
type JoinSessionOutput struct {
	Participants     []string
	ParticipantRoles map[string]models.Role

	// AlreadyParticipant is the idempotent-success signal: the user was
	// a member before the call and nothing changed.
	AlreadyParticipant bool
}

// LeaveSessionInput removes UserID from a session.
type LeaveSessionInput struct {
	SessionID string
	UserID    string
}

// LeaveSessionOutput reports whether the server closed the session as a
// side effect of the leave.
type LeaveSessionOutput struct {
	SessionClosed bool
}

// FetchUserSessionHistoryInput selects a user's closed sessions.
type FetchUserSessionHistoryInput struct {
	UserID string
	Limit  int
}

// FetchUserSessionHistoryOutput carries closed sessions, newest first.
type FetchUserSessionHistoryOutput struct {
	Sessions []*models.Session
}

// sessionRow is the backend wire shape. Everything outside this package
// sees only the camelCase domain model.
type sessionRow struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	Lat              float64           `json:"lat"`
	Lng              float64           `json:"lng"`
	SessionType      string            `json:"session_type"`
	Emoji            string            `json:"emoji"`
	EventTime        time.Time         `json:"event_time"`
	Duration         int               `json:"duration"`
	Status           string            `json:"status"`
	CreatorID        string            `json:"creator_id"`
	Participants     []string          `json:"participants"`
	ParticipantRoles map[string]string `json:"participant_roles"`
	Privacy          string            `json:"privacy"`
	VisibleToTags    []string          `json:"visible_to_tags"`
	SkillTag         string            `json:"skill_tag,omitempty"`
	Urgency          string            `json:"urgency,omitempty"`
	ReturnTime       *time.Time        `json:"return_time,omitempty"`
	ExpectedOutcome  string            `json:"expected_outcome,omitempty"`
	HelpCategory     string            `json:"help_category,omitempty"`
	Flow             string            `json:"flow,omitempty"`
}

func rowFromModel(s *models.Session) *sessionRow {
	roles := make(map[string]string, len(s.ParticipantRoles))
	for id, role := range s.ParticipantRoles {
		roles[id] = string(role)
	}

	return &sessionRow{
		ID:               s.ID,
		Title:            s.Title,
		Description:      s.Description,
		Lat:              s.Lat,
		Lng:              s.Lng,
		SessionType:      string(s.Type),
		Emoji:            s.Emoji,
		EventTime:        s.EventTime,
		Duration:         s.DurationMinutes,
		Status:           string(s.Status),
		CreatorID:        s.CreatorID,
		Participants:     s.Participants,
		ParticipantRoles: roles,
		Privacy:          string(s.Privacy),
		VisibleToTags:    s.VisibleToTagIDs,
		SkillTag:         s.SkillTag,
		Urgency:          string(s.Urgency),
		ReturnTime:       s.ReturnTime,
		ExpectedOutcome:  s.ExpectedOutcome,
		HelpCategory:     string(s.HelpCategory),
		Flow:             string(s.Flow),
	}
}

func (r *sessionRow) toModel() *models.Session {
	roles := make(map[string]models.Role, len(r.ParticipantRoles))
	for id, role := range r.ParticipantRoles {
		roles[id] = models.Role(role)
	}

	participants := r.Participants
	if participants == nil {
		participants = []string{}
	}

	return &models.Session{
		ID:               r.ID,
		Title:            r.Title,
		Description:      r.Description,
		Lat:              r.Lat,
		Lng:              r.Lng,
		Type:             models.SessionType(r.SessionType),
		Emoji:            r.Emoji,
		EventTime:        r.EventTime,
		DurationMinutes:  r.Duration,
		Status:           models.SessionStatus(r.Status),
		CreatorID:        r.CreatorID,
		Participants:     participants,
		ParticipantRoles: roles,
		Privacy:          models.Privacy(r.Privacy),
		VisibleToTagIDs:  r.VisibleToTags,
		SkillTag:         r.SkillTag,
		Urgency:          models.Urgency(r.Urgency),
		ReturnTime:       r.ReturnTime,
		ExpectedOutcome:  r.ExpectedOutcome,
		HelpCategory:     models.HelpCategory(r.HelpCategory),
		Flow:             models.Role(r.Flow),
	}
}

// DecodeRow maps a wire row from the change feed into the domain model.
// The reconciler uses this so that row shapes never leak past the
// repository boundary.
func DecodeRow(raw json.RawMessage) (*models.Session, error) {
	var row sessionRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
