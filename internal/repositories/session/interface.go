package session

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository is the backend collaborator for the sessions table. Every
// mutation publishes a change event on the sessions feed.
type Repository interface {
	// CreateSession persists a draft and returns the canonical row
	CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error)

	// GetSession retrieves a session by id
	GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error)

	// FetchActiveSessions returns all active sessions, newest first
	FetchActiveSessions(ctx context.Context, input *FetchActiveSessionsInput) (*FetchActiveSessionsOutput, error)

	// UpdateSession applies a partial update and returns the new row
	UpdateSession(ctx context.Context, input *UpdateSessionInput) (*UpdateSessionOutput, error)

	// DeleteSession removes a session
	DeleteSession(ctx context.Context, input *DeleteSessionInput) error

	// JoinSession adds a user as a participant. Idempotent: joining a
	// session the user is already in succeeds with AlreadyParticipant
	// set instead of erroring.
	JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error)

	// LeaveSession removes a user. The server decides whether the
	// session closes as a side effect.
	LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error)

	// FetchUserSessionHistory returns a user's closed sessions,
	// newest first
	FetchUserSessionHistory(ctx context.Context, input *FetchUserSessionHistoryInput) (*FetchUserSessionHistoryOutput, error)
}
