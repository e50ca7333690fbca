// Package realtime carries the backend's push channel: a per-scope
// change feed delivering {operation, old, new} events over Redis
// pub/sub. Delivery is at-least-once and ordered per entity; consumers
// must dedup. Payloads are the backend's snake_case wire rows; the
// repository packages own the mapping to domain models.
package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/metrics"
)

// Operation is the kind of change an event describes.
type Operation string

const (
	OpInsert Operation = "insert"
	OpUpdate Operation = "update"
	OpDelete Operation = "delete"
)

// Event is one entry on a change feed. Old is populated for deletes,
// New for inserts and updates.
type Event struct {
	Op  Operation       `json:"operation"`
	Old json.RawMessage `json:"old,omitempty"`
	New json.RawMessage `json:"new,omitempty"`
}

// Channel names, one per logical scope.

// SessionsChannel carries changes to all sessions.
const SessionsChannel = "feed:sessions"

// SessionMessagesChannel carries new messages for one session.
func SessionMessagesChannel(sessionID string) string {
	return fmt.Sprintf("feed:session_messages:%s", sessionID)
}

// NotificationsChannel carries new notifications for one user.
func NotificationsChannel(userID string) string {
	return fmt.Sprintf("feed:notifications:%s", userID)
}

// DirectMessagesChannel carries new messages for one conversation.
func DirectMessagesChannel(conversationID string) string {
	return fmt.Sprintf("feed:direct_messages:%s", conversationID)
}

// Publish emits an event on a feed channel. Repositories call this
// after every committed mutation.
func Publish(ctx context.Context, client *redis.Client, channel string, ev *Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	return nil
}

// Config holds configuration for the feed.
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// Feed subscribes to change channels.
type Feed struct {
	client *redis.Client
}

// New creates a feed over the given Redis client.
func New(cfg *Config) (*Feed, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	return &Feed{client: cfg.RedisClient}, nil
}

// Subscribe opens a subscription on one feed channel. The returned
// subscription delivers decoded events until Unsubscribe is called.
func (f *Feed) Subscribe(ctx context.Context, channel string) (*Subscription, error) {
	pubsub := f.client.Subscribe(ctx, channel)

	// Force the subscription to be established before returning so a
	// publish immediately after Subscribe is not lost.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	sub := &Subscription{
		channel: channel,
		pubsub:  pubsub,
		events:  make(chan *Event, 32),
		done:    make(chan struct{}),
	}

	go sub.pump()

	return sub, nil
}

// SubscribeSessions opens the global sessions feed.
func (f *Feed) SubscribeSessions(ctx context.Context) (*Subscription, error) {
	return f.Subscribe(ctx, SessionsChannel)
}

// SubscribeSessionMessages opens the message feed for one session.
func (f *Feed) SubscribeSessionMessages(ctx context.Context, sessionID string) (*Subscription, error) {
	return f.Subscribe(ctx, SessionMessagesChannel(sessionID))
}

// SubscribeNotifications opens the notification feed for one user.
func (f *Feed) SubscribeNotifications(ctx context.Context, userID string) (*Subscription, error) {
	return f.Subscribe(ctx, NotificationsChannel(userID))
}

// SubscribeDirectMessages opens the message feed for one conversation.
func (f *Feed) SubscribeDirectMessages(ctx context.Context, conversationID string) (*Subscription, error) {
	return f.Subscribe(ctx, DirectMessagesChannel(conversationID))
}

// Subscription is one open feed channel.
type Subscription struct {
	channel string
	pubsub  *redis.PubSub
	events  chan *Event
	done    chan struct{}
	once    sync.Once
}

// Events returns the delivery channel. It is closed after Unsubscribe.
func (s *Subscription) Events() <-chan *Event {
	return s.events
}

// Unsubscribe tears the channel down. Safe to call more than once and
// safe on a nil subscription; deliveries already in flight are dropped.
func (s *Subscription) Unsubscribe() {
	if s == nil {
		return
	}
	s.once.Do(func() {
		close(s.done)
		_ = s.pubsub.Close()
	})
}

func (s *Subscription) pump() {
	defer close(s.events)

	for msg := range s.pubsub.Channel() {
		var ev Event
		if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
			// Malformed payloads are dropped; the next event for the
			// same entity corrects state.
			continue
		}

		select {
		case <-s.done:
			metrics.StaleDrops.Inc()
			return
		case s.events <- &ev:
		}
	}
}
