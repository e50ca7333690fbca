package conversation

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis conversation repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// GetOrCreateConversationInput identifies the unordered participant
// pair.
type GetOrCreateConversationInput struct {
	UserID      string
	OtherUserID string
}

// FetchConversationsInput identifies a participant.
type FetchConversationsInput struct {
	UserID string
}

// FetchConversationsOutput carries the user's conversations.
type FetchConversationsOutput struct {
	Conversations []*models.Conversation
}

// FetchDirectMessagesInput selects a conversation's thread.
type FetchDirectMessagesInput struct {
	ConversationID string
}

// FetchDirectMessagesOutput carries messages, oldest first.
type FetchDirectMessagesOutput struct {
	Messages []*models.DirectMessage
}

// SendDirectMessageInput carries a message to append. The repository
// assigns the ID and timestamp.
type SendDirectMessageInput struct {
	ConversationID string
	SenderID       string
	Text           string
}

// conversationRow is the backend wire shape for a conversation.
type conversationRow struct {
	ID             string   `json:"id"`
	ParticipantIDs []string `json:"participant_ids"`
}

func (r *conversationRow) toModel() *models.Conversation {
	return &models.Conversation{
		ID:             r.ID,
		ParticipantIDs: r.ParticipantIDs,
		Messages:       []*models.DirectMessage{},
	}
}

// directMessageRow is the backend wire shape for a direct message.
type directMessageRow struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Text           string    `json:"text"`
	Timestamp      time.Time `json:"timestamp"`
}

func (r *directMessageRow) toModel() *models.DirectMessage {
	return &models.DirectMessage{
		ID:             r.ID,
		ConversationID: r.ConversationID,
		SenderID:       r.SenderID,
		Text:           r.Text,
		Timestamp:      r.Timestamp,
	}
}

// DecodeMessageRow maps a wire row from the change feed into the domain
// model.
func DecodeMessageRow(raw json.RawMessage) (*models.DirectMessage, error) {
	var row directMessageRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
