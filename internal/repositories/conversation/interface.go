package conversation

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for direct message storage
type Repository interface {
	// GetOrCreateConversation returns the one conversation for an
	// unordered participant pair, creating it on first use
	GetOrCreateConversation(ctx context.Context, input *GetOrCreateConversationInput) (*models.Conversation, error)

	// FetchConversations retrieves every conversation the user is part
	// of, without messages
	FetchConversations(ctx context.Context, input *FetchConversationsInput) (*FetchConversationsOutput, error)

	// FetchDirectMessages retrieves a conversation's messages, oldest
	// first
	FetchDirectMessages(ctx context.Context, input *FetchDirectMessagesInput) (*FetchDirectMessagesOutput, error)

	// SendDirectMessage appends a message and publishes it on the
	// conversation's push channel
	SendDirectMessage(ctx context.Context, input *SendDirectMessageInput) (*models.DirectMessage, error)
}
