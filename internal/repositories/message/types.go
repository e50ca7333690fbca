package message

import (
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis message repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// SendMessageInput carries a message to append. The repository assigns
// the ID and timestamp.
type SendMessageInput struct {
	SessionID string
	SenderID  string
	Text      string
}

// FetchMessagesInput selects a session's chat.
type FetchMessagesInput struct {
	SessionID string
}

// FetchMessagesOutput carries messages, oldest first.
type FetchMessagesOutput struct {
	Messages []*models.SessionMessage
}

// messageRow is the backend wire shape for a session message.
type messageRow struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	SenderID  string    `json:"sender_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *messageRow) toModel() *models.SessionMessage {
	return &models.SessionMessage{
		ID:        r.ID,
		SessionID: r.SessionID,
		SenderID:  r.SenderID,
		Text:      r.Text,
		CreatedAt: r.CreatedAt,
	}
}

// DecodeRow maps a wire row from the change feed into the domain model.
func DecodeRow(raw json.RawMessage) (*models.SessionMessage, error) {
	var row messageRow
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, err
	}
	return row.toModel(), nil
}
