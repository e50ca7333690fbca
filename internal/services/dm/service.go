// Package dm manages one-to-one conversations: a single open thread at
// a time, optimistic sends, and live delivery from the push channel.
package dm

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vibemap/vibemap/internal/common/clock"
	"github.com/vibemap/vibemap/internal/common/uuid"
	"github.com/vibemap/vibemap/internal/metrics"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/observability"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/conversation"
)

// ErrNoConversationOpen is returned when sending with nothing open
var ErrNoConversationOpen = errors.New("no conversation is open")

// Config holds dependencies for the direct message service
type Config struct {
	// UserID is the local user
	UserID string

	ConversationRepo conversation.Repository

	// Feed is the push channel transport
	Feed *realtime.Feed

	// Clock for message timestamps
	Clock clock.Clock

	// UUID generator for temporary client-side message ids
	UUID uuid.UUID
}

type openThread struct {
	conversationID string
	sub            *realtime.Subscription

	mu       sync.Mutex
	messages []*models.DirectMessage
}

func (t *openThread) snapshot() []*models.DirectMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*models.DirectMessage, len(t.messages))
	copy(out, t.messages)
	return out
}

type service struct {
	userID string

	conversationRepo conversation.Repository
	feed             *realtime.Feed
	clock            clock.Clock
	uuid             uuid.UUID
	log              *slog.Logger

	mu     sync.Mutex
	thread *openThread
}

// New creates a new direct message service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.UserID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if cfg.ConversationRepo == nil {
		return nil, errors.New("conversation repository cannot be nil")
	}
	if cfg.Feed == nil {
		return nil, errors.New("feed cannot be nil")
	}

	c := cfg.Clock
	if c == nil {
		c = clock.New()
	}
	ids := cfg.UUID
	if ids == nil {
		ids = uuid.New()
	}

	return &service{
		userID:           cfg.UserID,
		conversationRepo: cfg.ConversationRepo,
		feed:             cfg.Feed,
		clock:            c,
		uuid:             ids,
		log:              observability.WithFields("component", "dm", "user_id", cfg.UserID),
	}, nil
}

// Conversations lists the user's conversations.
func (s *service) Conversations(ctx context.Context) ([]*models.Conversation, error) {
	out, err := s.conversationRepo.FetchConversations(ctx, &conversation.FetchConversationsInput{
		UserID: s.userID,
	})
	if err != nil {
		return nil, err
	}
	return out.Conversations, nil
}

// OpenConversation opens the thread with another user, tearing down any
// previously open one, and returns the conversation with its history.
func (s *service) OpenConversation(ctx context.Context, otherUserID string) (*models.Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.thread != nil {
		s.thread.sub.Unsubscribe()
		s.thread = nil
	}

	convo, err := s.conversationRepo.GetOrCreateConversation(ctx, &conversation.GetOrCreateConversationInput{
		UserID:      s.userID,
		OtherUserID: otherUserID,
	})
	if err != nil {
		return nil, err
	}

	history, err := s.conversationRepo.FetchDirectMessages(ctx, &conversation.FetchDirectMessagesInput{
		ConversationID: convo.ID,
	})
	if err != nil {
		return nil, err
	}

	sub, err := s.feed.SubscribeDirectMessages(ctx, convo.ID)
	if err != nil {
		return nil, err
	}

	thread := &openThread{
		conversationID: convo.ID,
		sub:            sub,
		messages:       history.Messages,
	}
	s.thread = thread

	go s.consume(thread)

	convo.Messages = thread.snapshot()
	return convo, nil
}

// CloseConversation tears down the open thread, if any. Safe to call
// twice.
func (s *service) CloseConversation() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thread != nil {
		s.thread.sub.Unsubscribe()
		s.thread = nil
	}
}

// Messages returns the open thread, or nil when nothing is open.
func (s *service) Messages() []*models.DirectMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.thread == nil {
		return nil
	}
	return s.thread.snapshot()
}

// SendMessage sends optimistically: a pending placeholder appears at
// once and the push echo later replaces it in place.
func (s *service) SendMessage(ctx context.Context, text string) (*models.DirectMessage, error) {
	s.mu.Lock()
	thread := s.thread
	s.mu.Unlock()

	if thread == nil {
		return nil, ErrNoConversationOpen
	}

	placeholder := &models.DirectMessage{
		ID:             "temp-" + s.uuid.NewUUID(),
		ConversationID: thread.conversationID,
		SenderID:       s.userID,
		Text:           text,
		Timestamp:      s.clock.Now(),
		Pending:        true,
	}

	thread.mu.Lock()
	thread.messages = append(thread.messages, placeholder)
	thread.mu.Unlock()

	_, err := s.conversationRepo.SendDirectMessage(ctx, &conversation.SendDirectMessageInput{
		ConversationID: thread.conversationID,
		SenderID:       s.userID,
		Text:           text,
	})
	if err != nil {
		thread.mu.Lock()
		for i, msg := range thread.messages {
			if msg.ID == placeholder.ID {
				thread.messages = append(thread.messages[:i], thread.messages[i+1:]...)
				break
			}
		}
		thread.mu.Unlock()
		return nil, err
	}

	return placeholder, nil
}

func (s *service) consume(thread *openThread) {
	for ev := range thread.sub.Events() {
		s.apply(thread, ev)
	}
}

func (s *service) apply(thread *openThread, ev *realtime.Event) {
	if ev.Op != realtime.OpInsert {
		return
	}

	msg, err := conversation.DecodeMessageRow(ev.New)
	if err != nil {
		s.log.Error("failed to decode direct message", "error", err)
		return
	}

	thread.mu.Lock()
	defer thread.mu.Unlock()

	for _, existing := range thread.messages {
		if existing.ID == msg.ID {
			metrics.DuplicatesDropped.WithLabelValues("direct_messages").Inc()
			return
		}
	}

	// The echo of an optimistic send replaces its placeholder in
	// place; the thread does not grow.
	for i, existing := range thread.messages {
		if existing.Pending && existing.SenderID == msg.SenderID && existing.Text == msg.Text {
			thread.messages[i] = msg
			metrics.EventsApplied.WithLabelValues("direct_messages", string(realtime.OpInsert)).Inc()
			return
		}
	}

	thread.messages = append(thread.messages, msg)
	metrics.EventsApplied.WithLabelValues("direct_messages", string(realtime.OpInsert)).Inc()
}
