package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
)

const (
	// Key prefixes for Redis
	sessionKeyPrefix   = "session:"
	activeSessionsKey  = "active_sessions"
	userSessionsPrefix = "user_sessions:" // per-user history index
	profileKeyPrefix   = "profile:"       // read-only join for creator names
)

var (
	// ErrSessionNotFound is returned when a session is not found
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionClosed is returned when mutating a closed session
	ErrSessionClosed = errors.New("session is closed")

	// ErrNotParticipant is returned when leaving a session the user
	// is not in
	ErrNotParticipant = errors.New("not a participant")

	// ErrAlreadyParticipant carries the wire message used by the
	// hosted backend for idempotent joins. The repository reports the
	// condition through JoinSessionOutput.AlreadyParticipant instead,
	// but the message stays part of the contract.
	ErrAlreadyParticipant = errors.New("Already a participant")
)

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed session repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// CreateSession persists a draft session and returns the canonical row.
func (r *redisRepository) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil || input.Session == nil {
		return nil, errors.New("input and session cannot be nil")
	}

	draft := input.Session
	if draft.Title == "" {
		return nil, errors.New("title cannot be empty")
	}

	if draft.CreatorID == "" {
		return nil, errors.New("creator ID cannot be empty")
	}

	row := rowFromModel(draft)
	row.ID = uuid.New().String()
	if row.Status == "" {
		row.Status = string(models.SessionStatusActive)
	}
	if row.Privacy == "" {
		row.Privacy = string(models.PrivacyPublic)
	}
	if row.EventTime.IsZero() {
		row.EventTime = time.Now()
	}

	// The creator is always a participant of their own session.
	if !containsID(row.Participants, row.CreatorID) {
		row.Participants = append([]string{row.CreatorID}, row.Participants...)
	}
	if row.ParticipantRoles == nil {
		row.ParticipantRoles = map[string]string{}
	}

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	if err := r.publishRow(ctx, realtime.OpInsert, row); err != nil {
		return nil, err
	}

	created := row.toModel()
	created.CreatorName = r.lookupUsername(ctx, row.CreatorID)

	return &CreateSessionOutput{Session: created}, nil
}

// GetSession retrieves a session by ID from Redis
func (r *redisRepository) GetSession(ctx context.Context, input *GetSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	s := row.toModel()
	s.CreatorName = r.lookupUsername(ctx, s.CreatorID)
	return s, nil
}

// FetchActiveSessions retrieves all active sessions, newest first, with
// creator display names joined in.
func (r *redisRepository) FetchActiveSessions(ctx context.Context, input *FetchActiveSessionsInput) (*FetchActiveSessionsOutput, error) {
	ids, err := r.client.SMembers(ctx, activeSessionsKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get active session IDs: %w", err)
	}

	if len(ids) == 0 {
		return &FetchActiveSessionsOutput{Sessions: []*models.Session{}}, nil
	}

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(ids))
	for _, id := range ids {
		cmds[id] = pipe.Get(ctx, sessionKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get active sessions: %w", err)
	}

	sessions := make([]*models.Session, 0, len(ids))
	for id, cmd := range cmds {
		payload, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				// Deleted between the index read and the fetch.
				continue
			}
			return nil, fmt.Errorf("failed to get session %s: %w", id, err)
		}

		var row sessionRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal session %s: %w", id, err)
		}
		sessions = append(sessions, row.toModel())
	}

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].EventTime.After(sessions[j].EventTime)
	})

	r.joinCreatorNames(ctx, sessions)

	return &FetchActiveSessionsOutput{Sessions: sessions}, nil
}

// UpdateSession applies a partial update and publishes the new row.
func (r *redisRepository) UpdateSession(ctx context.Context, input *UpdateSessionInput) (*UpdateSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	if input.DurationMinutes != nil {
		row.Duration = *input.DurationMinutes
	}
	if input.Status != nil {
		row.Status = string(*input.Status)
	}
	if input.CreatorID != nil {
		row.CreatorID = *input.CreatorID
	}
	if input.Participants != nil {
		row.Participants = input.Participants
	}
	if input.ParticipantRoles != nil {
		roles := make(map[string]string, len(input.ParticipantRoles))
		for id, role := range input.ParticipantRoles {
			roles[id] = string(role)
		}
		row.ParticipantRoles = roles
	}

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	if err := r.publishRow(ctx, realtime.OpUpdate, row); err != nil {
		return nil, err
	}

	updated := row.toModel()
	updated.CreatorName = r.lookupUsername(ctx, updated.CreatorID)

	return &UpdateSessionOutput{Session: updated}, nil
}

// DeleteSession removes a session and publishes the delete.
func (r *redisRepository) DeleteSession(ctx context.Context, input *DeleteSessionInput) error {
	if input == nil || input.SessionID == "" {
		return errors.New("input and session ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.SessionID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, sessionKeyPrefix+input.SessionID)
	pipe.SRem(ctx, activeSessionsKey, input.SessionID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	old, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return realtime.Publish(ctx, r.client, realtime.SessionsChannel, &realtime.Event{
		Op:  realtime.OpDelete,
		Old: old,
	})
}

// JoinSession adds a user to a session. Joining a session the user is
// already in is a success, not an error; the output always carries the
// authoritative membership state.
func (r *redisRepository) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return nil, errors.New("input, session ID and user ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	if row.Status != string(models.SessionStatusActive) {
		return nil, ErrSessionClosed
	}

	if containsID(row.Participants, input.UserID) {
		return &JoinSessionOutput{
			Participants:       row.Participants,
			ParticipantRoles:   rolesFromRow(row),
			AlreadyParticipant: true,
		}, nil
	}

	role := input.Role
	if role == "" {
		role = models.RoleParticipant
	}

	// A borrow session has at most one giver; a losing racer is
	// demoted to plain participant rather than rejected.
	if role == models.RoleGiver && row.SessionType == string(models.SessionTypeBorrow) {
		for _, existing := range row.ParticipantRoles {
			if existing == string(models.RoleGiver) {
				role = models.RoleParticipant
				break
			}
		}
	}

	row.Participants = append(row.Participants, input.UserID)
	if row.ParticipantRoles == nil {
		row.ParticipantRoles = map[string]string{}
	}
	row.ParticipantRoles[input.UserID] = string(role)

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	if err := r.publishRow(ctx, realtime.OpUpdate, row); err != nil {
		return nil, err
	}

	return &JoinSessionOutput{
		Participants:     row.Participants,
		ParticipantRoles: rolesFromRow(row),
	}, nil
}

// LeaveSession removes a user from a session. When the last participant
// leaves the session is closed; the client must branch on the returned
// flag, never on its own participant count.
func (r *redisRepository) LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error) {
	if input == nil || input.SessionID == "" || input.UserID == "" {
		return nil, errors.New("input, session ID and user ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	if !containsID(row.Participants, input.UserID) {
		return nil, ErrNotParticipant
	}

	remaining := make([]string, 0, len(row.Participants))
	for _, id := range row.Participants {
		if id != input.UserID {
			remaining = append(remaining, id)
		}
	}
	row.Participants = remaining
	delete(row.ParticipantRoles, input.UserID)

	closed := len(row.Participants) == 0
	if closed {
		row.Status = string(models.SessionStatusClosed)
	}

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	if err := r.publishRow(ctx, realtime.OpUpdate, row); err != nil {
		return nil, err
	}

	return &LeaveSessionOutput{SessionClosed: closed}, nil
}

// FetchUserSessionHistory returns a user's closed sessions, newest first.
func (r *redisRepository) FetchUserSessionHistory(ctx context.Context, input *FetchUserSessionHistoryInput) (*FetchUserSessionHistoryOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 50
	}

	ids, err := r.client.ZRevRange(ctx, userSessionsPrefix+input.UserID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get session history index: %w", err)
	}

	sessions := make([]*models.Session, 0, len(ids))
	for _, id := range ids {
		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrSessionNotFound) {
				continue
			}
			return nil, err
		}
		if row.Status != string(models.SessionStatusClosed) {
			continue
		}
		sessions = append(sessions, row.toModel())
		if len(sessions) >= limit {
			break
		}
	}

	r.joinCreatorNames(ctx, sessions)

	return &FetchUserSessionHistoryOutput{Sessions: sessions}, nil
}

func (r *redisRepository) getRow(ctx context.Context, sessionID string) (*sessionRow, error) {
	payload, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var row sessionRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &row, nil
}

func (r *redisRepository) saveRow(ctx context.Context, row *sessionRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, sessionKeyPrefix+row.ID, payload, 0)

	if row.Status == string(models.SessionStatusActive) {
		pipe.SAdd(ctx, activeSessionsKey, row.ID)
	} else {
		pipe.SRem(ctx, activeSessionsKey, row.ID)
	}

	// History index: once a user has been in a session it stays in
	// their history even after they leave.
	score := float64(row.EventTime.UnixNano())
	pipe.ZAdd(ctx, userSessionsPrefix+row.CreatorID, redis.Z{Score: score, Member: row.ID})
	for _, id := range row.Participants {
		pipe.ZAdd(ctx, userSessionsPrefix+id, redis.Z{Score: score, Member: row.ID})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	return nil
}

func (r *redisRepository) publishRow(ctx context.Context, op realtime.Operation, row *sessionRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return realtime.Publish(ctx, r.client, realtime.SessionsChannel, &realtime.Event{
		Op:  op,
		New: payload,
	})
}

// lookupUsername resolves a creator display name. A failed lookup falls
// back to a placeholder; it never fails the caller.
func (r *redisRepository) lookupUsername(ctx context.Context, userID string) string {
	payload, err := r.client.Get(ctx, profileKeyPrefix+userID).Result()
	if err != nil {
		return "Unknown"
	}

	var row struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(payload), &row); err != nil || row.Username == "" {
		return "Unknown"
	}

	return row.Username
}

func (r *redisRepository) joinCreatorNames(ctx context.Context, sessions []*models.Session) {
	names := make(map[string]string)
	for _, s := range sessions {
		name, ok := names[s.CreatorID]
		if !ok {
			name = r.lookupUsername(ctx, s.CreatorID)
			names[s.CreatorID] = name
		}
		s.CreatorName = name
	}
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

func rolesFromRow(row *sessionRow) map[string]models.Role {
	roles := make(map[string]models.Role, len(row.ParticipantRoles))
	for id, role := range row.ParticipantRoles {
		roles[id] = models.Role(role)
	}
	return roles
}
