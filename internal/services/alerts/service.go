// Package alerts maintains the user's notification inbox: raw records
// from the backend are enriched into display-ready notifications, and
// the push channel keeps the inbox live.
package alerts

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/vibemap/vibemap/internal/metrics"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/observability"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
)

// Config holds dependencies for the alerts service
type Config struct {
	// UserID is the inbox owner
	UserID string

	NotificationRepo notification.Repository
	ProfileRepo      profile.Repository
	SessionRepo      session.Repository
	TagRepo          tag.Repository

	// Feed is the push channel transport
	Feed *realtime.Feed
}

type service struct {
	userID string

	notificationRepo notification.Repository
	profileRepo      profile.Repository
	sessionRepo      session.Repository
	tagRepo          tag.Repository
	feed             *realtime.Feed
	log              *slog.Logger

	mu            sync.RWMutex
	notifications []*models.Notification
}

// New creates a new alerts service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.UserID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if cfg.NotificationRepo == nil {
		return nil, errors.New("notification repository cannot be nil")
	}
	if cfg.ProfileRepo == nil {
		return nil, errors.New("profile repository cannot be nil")
	}
	if cfg.SessionRepo == nil {
		return nil, errors.New("session repository cannot be nil")
	}
	if cfg.TagRepo == nil {
		return nil, errors.New("tag repository cannot be nil")
	}
	if cfg.Feed == nil {
		return nil, errors.New("feed cannot be nil")
	}

	return &service{
		userID:           cfg.UserID,
		notificationRepo: cfg.NotificationRepo,
		profileRepo:      cfg.ProfileRepo,
		sessionRepo:      cfg.SessionRepo,
		tagRepo:          cfg.TagRepo,
		feed:             cfg.Feed,
		log:              observability.WithFields("component", "alerts", "user_id", cfg.UserID),
		notifications:    []*models.Notification{},
	}, nil
}

// Load fetches and enriches the inbox.
func (s *service) Load(ctx context.Context) error {
	out, err := s.notificationRepo.FetchNotifications(ctx, &notification.FetchNotificationsInput{
		RecipientID: s.userID,
	})
	if err != nil {
		return err
	}

	enriched := make([]*models.Notification, 0, len(out.Records))
	for _, rec := range out.Records {
		enriched = append(enriched, s.Enrich(ctx, rec))
	}

	s.mu.Lock()
	s.notifications = enriched
	s.mu.Unlock()
	return nil
}

// Run keeps the inbox live from the push channel until the context is
// canceled.
func (s *service) Run(ctx context.Context) error {
	sub, err := s.feed.SubscribeNotifications(ctx, s.userID)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			s.applyEvent(ctx, ev)
		}
	}
}

func (s *service) applyEvent(ctx context.Context, ev *realtime.Event) {
	if ev.Op != realtime.OpInsert {
		return
	}

	rec, err := notification.DecodeRow(ev.New)
	if err != nil {
		s.log.Error("failed to decode notification", "error", err)
		return
	}

	enriched := s.Enrich(ctx, rec)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.notifications {
		if existing.ID == enriched.ID {
			metrics.DuplicatesDropped.WithLabelValues("notifications").Inc()
			return
		}
	}
	s.notifications = append([]*models.Notification{enriched}, s.notifications...)
	metrics.EventsApplied.WithLabelValues("notifications", string(realtime.OpInsert)).Inc()
}

// Enrich resolves a record's references into display projections. The
// three lookups are independent: any that fails leaves its projection
// nil and the notification still renders.
func (s *service) Enrich(ctx context.Context, rec *models.NotificationRecord) *models.Notification {
	n := &models.Notification{
		ID:        rec.ID,
		Type:      rec.Type,
		Timestamp: rec.CreatedAt,
		IsRead:    rec.IsRead,
	}

	if rec.ActorID != "" {
		if p, err := s.profileRepo.GetProfile(ctx, &profile.GetProfileInput{UserID: rec.ActorID}); err == nil {
			n.Actor = &models.ActorRef{ID: p.ID, Username: p.Username}
		} else {
			metrics.EnrichmentFailures.WithLabelValues("actor").Inc()
			s.log.Warn("actor lookup failed", "actor_id", rec.ActorID, "error", err)
		}
	}

	if rec.SessionID != "" {
		if sess, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{SessionID: rec.SessionID}); err == nil {
			n.Session = &models.SessionRef{ID: sess.ID, Title: sess.Title, Emoji: sess.Emoji}
		} else {
			metrics.EnrichmentFailures.WithLabelValues("session").Inc()
			s.log.Warn("session lookup failed", "session_id", rec.SessionID, "error", err)
		}
	}

	if rec.TagID != "" {
		if t, err := s.tagRepo.GetTag(ctx, &tag.GetTagInput{TagID: rec.TagID}); err == nil {
			n.Tag = &models.TagRef{ID: t.ID, Name: t.Name}
		} else {
			metrics.EnrichmentFailures.WithLabelValues("tag").Inc()
			s.log.Warn("tag lookup failed", "tag_id", rec.TagID, "error", err)
		}
	}

	return n
}

// Notifications returns the inbox, newest first.
func (s *service) Notifications() []*models.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// UnreadCount returns how many notifications are unread.
func (s *service) UnreadCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notifications {
		if !n.IsRead {
			count++
		}
	}
	return count
}

// MarkRead flips a notification to read locally and on the server.
func (s *service) MarkRead(ctx context.Context, notificationID string) error {
	if err := s.notificationRepo.MarkRead(ctx, &notification.MarkReadInput{NotificationID: notificationID}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == notificationID && !n.IsRead {
			read := *n
			read.IsRead = true
			s.notifications[i] = &read
		}
	}
	return nil
}

// MarkAllRead flips the whole inbox to read.
func (s *service) MarkAllRead(ctx context.Context) error {
	if err := s.notificationRepo.MarkAllRead(ctx, &notification.MarkAllReadInput{RecipientID: s.userID}); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.IsRead {
			continue
		}
		read := *n
		read.IsRead = true
		s.notifications[i] = &read
	}
	return nil
}

// Delete removes a notification locally and on the server.
func (s *service) Delete(ctx context.Context, notificationID string) error {
	err := s.notificationRepo.DeleteNotification(ctx, &notification.DeleteNotificationInput{
		NotificationID: notificationID,
		RecipientID:    s.userID,
	})
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notifications {
		if n.ID == notificationID {
			s.notifications = append(s.notifications[:i], s.notifications[i+1:]...)
			break
		}
	}
	return nil
}
