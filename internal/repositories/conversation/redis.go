package conversation

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
	conversationKeyPrefix = "conversation:"
	pairIndexPrefix       = "conversation_by_pair:"
	userIndexPrefix       = "user_conversations:"
	messagesPrefix        = "direct_messages:"
)

// ErrConversationNotFound is returned when a conversation is not found
var ErrConversationNotFound = errors.New("conversation not found")

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed conversation repository
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

// GetOrCreateConversation returns the single conversation for the pair,
// creating it on first use. The pair key is order-independent.
func (r *redisRepository) GetOrCreateConversation(ctx context.Context, input *GetOrCreateConversationInput) (*models.Conversation, error) {
	if input == nil || input.UserID == "" || input.OtherUserID == "" {
		return nil, errors.New("input and both user IDs cannot be empty")
	}

	if input.UserID == input.OtherUserID {
		return nil, errors.New("cannot open a conversation with yourself")
	}

	pair := pairKey(input.UserID, input.OtherUserID)

	if id, err := r.client.Get(ctx, pair).Result(); err == nil {
		row, err := r.getRow(ctx, id)
		if err != nil {
			return nil, err
		}
		return row.toModel(), nil
	} else if err != redis.Nil {
		return nil, fmt.Errorf("failed to get pair index: %w", err)
	}

	participants := []string{input.UserID, input.OtherUserID}
	sort.Strings(participants)

	row := &conversationRow{
		ID:             uuid.New().String(),
		ParticipantIDs: participants,
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal conversation: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, conversationKeyPrefix+row.ID, payload, 0)
	pipe.Set(ctx, pair, row.ID, 0)
	for _, id := range participants {
		pipe.SAdd(ctx, userIndexPrefix+id, row.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}

	return row.toModel(), nil
}

// FetchConversations retrieves the user's conversations without
// message threads.
func (r *redisRepository) FetchConversations(ctx context.Context, input *FetchConversationsInput) (*FetchConversationsOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, userIndexPrefix+input.UserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation index: %w", err)
	}

	conversations := make([]*models.Conversation, 0, len(ids))
	for _, id := range ids {
		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrConversationNotFound) {
				continue
			}
			return nil, err
		}
		conversations = append(conversations, row.toModel())
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].ID < conversations[j].ID
	})

	return &FetchConversationsOutput{Conversations: conversations}, nil
}

// FetchDirectMessages retrieves a conversation's thread, oldest first.
func (r *redisRepository) FetchDirectMessages(ctx context.Context, input *FetchDirectMessagesInput) (*FetchDirectMessagesOutput, error) {
	if input == nil || input.ConversationID == "" {
		return nil, errors.New("input and conversation ID cannot be empty")
	}

	payloads, err := r.client.ZRange(ctx, messagesPrefix+input.ConversationID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]*models.DirectMessage, 0, len(payloads))
	for _, payload := range payloads {
		var row directMessageRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message: %w", err)
		}
		messages = append(messages, row.toModel())
	}

	return &FetchDirectMessagesOutput{Messages: messages}, nil
}

// SendDirectMessage appends a message and publishes it on the
// conversation's push channel.
func (r *redisRepository) SendDirectMessage(ctx context.Context, input *SendDirectMessageInput) (*models.DirectMessage, error) {
	if input == nil || input.ConversationID == "" || input.SenderID == "" {
		return nil, errors.New("input, conversation ID and sender ID cannot be empty")
	}

	if input.Text == "" {
		return nil, errors.New("message text cannot be empty")
	}

	if _, err := r.getRow(ctx, input.ConversationID); err != nil {
		return nil, err
	}

	row := &directMessageRow{
		ID:             uuid.New().String(),
		ConversationID: input.ConversationID,
		SenderID:       input.SenderID,
		Text:           input.Text,
		Timestamp:      time.Now(),
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}

	err = r.client.ZAdd(ctx, messagesPrefix+row.ConversationID, redis.Z{
		Score:  float64(row.Timestamp.UnixNano()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to save message: %w", err)
	}

	err = realtime.Publish(ctx, r.client, realtime.DirectMessagesChannel(row.ConversationID), &realtime.Event{
		Op:  realtime.OpInsert,
		New: payload,
	})
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

func (r *redisRepository) getRow(ctx context.Context, conversationID string) (*conversationRow, error) {
	payload, err := r.client.Get(ctx, conversationKeyPrefix+conversationID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var row conversationRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversation: %w", err)
	}

	return &row, nil
}

func pairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return pairIndexPrefix + a + ":" + b
}
