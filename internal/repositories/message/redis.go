package message

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
)

const (
	sessionMessagesPrefix = "session_messages:"
	profileKeyPrefix      = "profile:"
)

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed message repository
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

// SendMessage appends a message and publishes it. The returned message
// carries the server-assigned ID the push echo will repeat.
func (r *redisRepository) SendMessage(ctx context.Context, input *SendMessageInput) (*models.SessionMessage, error) {
	if input == nil || input.SessionID == "" || input.SenderID == "" {
		return nil, errors.New("input, session ID and sender ID cannot be empty")
	}

	if input.Text == "" {
		return nil, errors.New("message text cannot be empty")
	}

	row := &messageRow{
		ID:        uuid.New().String(),
		SessionID: input.SessionID,
		SenderID:  input.SenderID,
		Text:      input.Text,
		CreatedAt: time.Now(),
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	err = r.client.ZAdd(ctx, sessionMessagesPrefix+row.SessionID, redis.Z{
		Score:  float64(row.CreatedAt.UnixNano()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	err = realtime.Publish(ctx, r.client, realtime.SessionMessagesChannel(row.SessionID), &realtime.Event{
		Op:  realtime.OpInsert,
		New: payload,
	})
	if err != nil {
		return nil, err
	}

	msg := row.toModel()
	msg.SenderName = r.lookupUsername(ctx, row.SenderID)
	return msg, nil
}

// FetchMessages retrieves a session's chat, oldest first, with sender
// display names joined in.
func (r *redisRepository) FetchMessages(ctx context.Context, input *FetchMessagesInput) (*FetchMessagesOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, errors.New("input and session ID cannot be empty")
	}

	payloads, err := r.client.ZRange(ctx, sessionMessagesPrefix+input.SessionID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	names := make(map[string]string)
	messages := make([]*models.SessionMessage, 0, len(payloads))
	for _, payload := range payloads {
		var row messageRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}

		msg := row.toModel()
		name, ok := names[row.SenderID]
		if !ok {
			name = r.lookupUsername(ctx, row.SenderID)
			names[row.SenderID] = name
		}
		msg.SenderName = name
		messages = append(messages, msg)
	}

	return &FetchMessagesOutput{Messages: messages}, nil
}

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
