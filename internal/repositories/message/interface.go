package message

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for session chat storage
type Repository interface {
	// SendMessage appends a message to a session's chat and publishes
	// it on the session's message channel
	SendMessage(ctx context.Context, input *SendMessageInput) (*models.SessionMessage, error)

	// FetchMessages retrieves a session's messages, oldest first
	FetchMessages(ctx context.Context, input *FetchMessagesInput) (*FetchMessagesOutput, error)
}
