package coordinator

import (
	"context"
	"sync"
	"time"

	"github.com/vibemap/vibemap/internal/metrics"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/message"
	"github.com/vibemap/vibemap/internal/repositories/profile"
)

// openChat is the one live session chat. Opening another session's chat
// tears this one down first; two live chat subscriptions never coexist.
type openChat struct {
	sessionID string
	sub       *realtime.Subscription

	mu       sync.Mutex
	messages []*models.SessionMessage
	closed   bool
}

func (c *openChat) snapshot() []*models.SessionMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*models.SessionMessage, len(c.messages))
	copy(out, c.messages)
	return out
}

func (c *openChat) append(msg *models.SessionMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.messages = append(c.messages, msg)
}

func (c *openChat) markClosed() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *openChat) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *openChat) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, msg := range c.messages {
		if msg.ID == id {
			c.messages = append(c.messages[:i], c.messages[i+1:]...)
			return
		}
	}
}

// appendSystem adds a locally generated notice. System messages are
// never persisted and never arrive on the push channel.
func (c *openChat) appendSystem(text string, now time.Time) {
	c.append(&models.SessionMessage{
		ID:         "system-" + now.Format("20060102150405.000000000"),
		SessionID:  c.sessionID,
		SenderID:   models.SystemSenderID,
		SenderName: "System",
		Text:       text,
		CreatedAt:  now,
	})
}

// OpenChat opens a session's chat: any previous chat is torn down, the
// history fetched, and the live subscription started.
func (s *service) OpenChat(ctx context.Context, sessionID string) ([]*models.SessionMessage, error) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()

	if s.chat != nil {
		s.chat.sub.Unsubscribe()
		s.chat = nil
	}

	out, err := s.messageRepo.FetchMessages(ctx, &message.FetchMessagesInput{SessionID: sessionID})
	if err != nil {
		return nil, err
	}

	sub, err := s.feed.SubscribeSessionMessages(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	chat := &openChat{
		sessionID: sessionID,
		sub:       sub,
		messages:  out.Messages,
	}
	s.chat = chat

	go s.consumeChat(chat)

	return chat.snapshot(), nil
}

// CloseChat tears down the open chat, if any. Safe to call twice.
func (s *service) CloseChat() {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if s.chat != nil {
		s.chat.sub.Unsubscribe()
		s.chat = nil
	}
}

// ChatMessages returns the open chat's thread, or nil when no chat is
// open.
func (s *service) ChatMessages() []*models.SessionMessage {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if s.chat == nil {
		return nil
	}
	return s.chat.snapshot()
}

// SendChatMessage sends optimistically: a pending placeholder appears
// at once and the push echo later replaces it in place.
func (s *service) SendChatMessage(ctx context.Context, text string) (*models.SessionMessage, error) {
	s.chatMu.Lock()
	chat := s.chat
	s.chatMu.Unlock()

	if chat == nil || chat.isClosed() {
		return nil, ErrNoChatOpen
	}

	placeholder := &models.SessionMessage{
		ID:         "temp-" + s.uuid.NewUUID(),
		SessionID:  chat.sessionID,
		SenderID:   s.userID,
		SenderName: s.username,
		Text:       text,
		CreatedAt:  s.clock.Now(),
		Pending:    true,
	}
	chat.append(placeholder)

	_, err := s.messageRepo.SendMessage(ctx, &message.SendMessageInput{
		SessionID: chat.sessionID,
		SenderID:  s.userID,
		Text:      text,
	})
	if err != nil {
		chat.remove(placeholder.ID)
		return nil, err
	}

	return placeholder, nil
}

// AddSystemNotice appends a local system message to the open chat.
func (s *service) AddSystemNotice(text string) {
	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if s.chat != nil {
		s.chat.appendSystem(text, s.clock.Now())
	}
}

func (s *service) consumeChat(chat *openChat) {
	for ev := range chat.sub.Events() {
		s.applyChatEvent(chat, ev)
	}
}

func (s *service) applyChatEvent(chat *openChat, ev *realtime.Event) {
	if ev.Op != realtime.OpInsert {
		return
	}

	msg, err := message.DecodeRow(ev.New)
	if err != nil {
		s.log.Error("failed to decode chat message", "error", err)
		return
	}

	if msg.SenderID == s.userID {
		msg.SenderName = s.username
	} else {
		msg.SenderName = s.resolveSenderName(msg.SenderID)
	}

	chat.mu.Lock()
	defer chat.mu.Unlock()

	for _, existing := range chat.messages {
		if existing.ID == msg.ID {
			metrics.DuplicatesDropped.WithLabelValues("session_messages").Inc()
			return
		}
	}

	// The echo of an optimistic send replaces its placeholder in
	// place; the thread does not grow.
	for i, existing := range chat.messages {
		if existing.Pending && existing.SenderID == msg.SenderID && existing.Text == msg.Text {
			chat.messages[i] = msg
			metrics.EventsApplied.WithLabelValues("session_messages", string(realtime.OpInsert)).Inc()
			return
		}
	}

	chat.messages = append(chat.messages, msg)
	metrics.EventsApplied.WithLabelValues("session_messages", string(realtime.OpInsert)).Inc()
}

func (s *service) resolveSenderName(senderID string) string {
	p, err := s.profileRepo.GetProfile(context.Background(), &profile.GetProfileInput{UserID: senderID})
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("sender").Inc()
		return "Unknown"
	}
	return p.Username
}
