// Package coordinator replicates the live session map for one user: it
// loads the initial state, merges change-feed events into a local
// store, runs the join/leave protocol, and derives what the user may
// see at any instant.
package coordinator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/vibemap/vibemap/internal/common/clock"
	"github.com/vibemap/vibemap/internal/common/uuid"
	"github.com/vibemap/vibemap/internal/lifecycle"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/observability"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/friend"
	"github.com/vibemap/vibemap/internal/repositories/message"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
	"github.com/vibemap/vibemap/internal/visibility"
)

const defaultTickInterval = 45 * time.Second

type service struct {
	userID   string
	username string

	sessionRepo      session.Repository
	profileRepo      profile.Repository
	tagRepo          tag.Repository
	friendRepo       friend.Repository
	messageRepo      message.Repository
	notificationRepo notification.Repository

	feed         *realtime.Feed
	clock        clock.Clock
	uuid         uuid.UUID
	tickInterval time.Duration
	log          *slog.Logger

	state *store

	mu             sync.Mutex
	joinsInFlight  map[string]struct{}
	endingSoonSeen map[string]struct{}

	chatMu sync.Mutex
	chat   *openChat
}

// New creates a new coordinator service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.UserID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if cfg.SessionRepo == nil {
		return nil, errors.New("session repository cannot be nil")
	}
	if cfg.ProfileRepo == nil {
		return nil, errors.New("profile repository cannot be nil")
	}
	if cfg.TagRepo == nil {
		return nil, errors.New("tag repository cannot be nil")
	}
	if cfg.FriendRepo == nil {
		return nil, errors.New("friend repository cannot be nil")
	}
	if cfg.MessageRepo == nil {
		return nil, errors.New("message repository cannot be nil")
	}
	if cfg.NotificationRepo == nil {
		return nil, errors.New("notification repository cannot be nil")
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
	tick := cfg.TickInterval
	if tick <= 0 {
		tick = defaultTickInterval
	}

	return &service{
		userID:           cfg.UserID,
		username:         cfg.Username,
		sessionRepo:      cfg.SessionRepo,
		profileRepo:      cfg.ProfileRepo,
		tagRepo:          cfg.TagRepo,
		friendRepo:       cfg.FriendRepo,
		messageRepo:      cfg.MessageRepo,
		notificationRepo: cfg.NotificationRepo,
		feed:             cfg.Feed,
		clock:            c,
		uuid:             ids,
		tickInterval:     tick,
		log:              observability.WithFields("component", "coordinator", "user_id", cfg.UserID),
		state:            newStore(),
		joinsInFlight:    map[string]struct{}{},
		endingSoonSeen:   map[string]struct{}{},
	}, nil
}

// Load fetches the initial state. The fetches run concurrently and fail
// independently: a section that errors stays empty while the others
// load.
func (s *service) Load(ctx context.Context) {
	var wg sync.WaitGroup

	wg.Add(4)
	go func() {
		defer wg.Done()
		out, err := s.sessionRepo.FetchActiveSessions(ctx, &session.FetchActiveSessionsInput{})
		if err != nil {
			s.log.Error("failed to load sessions", "error", err)
			return
		}
		s.state.ReplaceSessions(out.Sessions)
	}()
	go func() {
		defer wg.Done()
		out, err := s.tagRepo.FetchTagsForUser(ctx, &tag.FetchTagsForUserInput{UserID: s.userID})
		if err != nil {
			s.log.Error("failed to load tags", "error", err)
			return
		}
		s.state.ReplaceTags(out.Tags)
	}()
	go func() {
		defer wg.Done()
		out, err := s.friendRepo.FetchFriends(ctx, &friend.FetchFriendsInput{UserID: s.userID})
		if err != nil {
			s.log.Error("failed to load friends", "error", err)
			return
		}
		s.state.ReplaceFriends(out.Friends)
	}()
	go func() {
		defer wg.Done()
		out, err := s.friendRepo.FetchFriendRequests(ctx, &friend.FetchFriendRequestsInput{UserID: s.userID})
		if err != nil {
			s.log.Error("failed to load friend requests", "error", err)
			return
		}
		s.state.ReplaceRequests(out.Requests)
	}()

	wg.Wait()
}

// Run subscribes to the session change feed and drives the lifecycle
// tick until the context is canceled.
func (s *service) Run(ctx context.Context) error {
	sub, err := s.feed.SubscribeSessions(ctx)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	ticker := s.clock.NewTicker(s.tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.Events():
			if !ok {
				return nil
			}
			s.applySessionEvent(ctx, ev)
		case <-ticker.C():
			s.tick(ctx)
		}
	}
}

// VisibleSessions derives what the user may see right now: hidden
// sessions are dropped, visibility rules applied, lifecycle status
// computed. Nothing is stored; the next call recomputes.
func (s *service) VisibleSessions() []*SessionView {
	now := s.clock.Now()
	viewerTags := visibility.MemberTagSet(s.state.Tags(), s.userID)

	var views []*SessionView
	for _, sess := range s.state.Sessions() {
		if lifecycle.ShouldHide(sess, now) {
			continue
		}
		if !visibility.Visible(sess, s.userID, viewerTags) {
			continue
		}
		views = append(views, &SessionView{
			Session: sess,
			Status:  lifecycle.Describe(sess, now),
		})
	}
	return views
}

// Sessions returns the raw replicated set, unfiltered.
func (s *service) Sessions() []*models.Session {
	return s.state.Sessions()
}

// Tags returns the user's tags as of the last load.
func (s *service) Tags() []*models.Tag {
	return s.state.Tags()
}

// Friends returns the friends list as of the last load.
func (s *service) Friends() []*models.Friend {
	return s.state.Friends()
}

// FriendRequests returns pending incoming requests as of the last load.
func (s *service) FriendRequests() []*models.FriendRequest {
	return s.state.Requests()
}

// ReloadSocial refetches friends and requests. Friend state is always
// refreshed wholesale, never patched.
func (s *service) ReloadSocial(ctx context.Context) {
	if out, err := s.friendRepo.FetchFriends(ctx, &friend.FetchFriendsInput{UserID: s.userID}); err == nil {
		s.state.ReplaceFriends(out.Friends)
	} else {
		s.log.Error("failed to reload friends", "error", err)
	}
	if out, err := s.friendRepo.FetchFriendRequests(ctx, &friend.FetchFriendRequestsInput{UserID: s.userID}); err == nil {
		s.state.ReplaceRequests(out.Requests)
	} else {
		s.log.Error("failed to reload friend requests", "error", err)
	}
}

// ReloadTags refetches the user's tags.
func (s *service) ReloadTags(ctx context.Context) {
	out, err := s.tagRepo.FetchTagsForUser(ctx, &tag.FetchTagsForUserInput{UserID: s.userID})
	if err != nil {
		s.log.Error("failed to reload tags", "error", err)
		return
	}
	s.state.ReplaceTags(out.Tags)
}

// tick re-derives lifecycle phases and files an ending-soon alert the
// first time one of the user's sessions crosses the threshold.
func (s *service) tick(ctx context.Context) {
	now := s.clock.Now()

	for _, sess := range s.state.Sessions() {
		if !sess.HasParticipant(s.userID) {
			continue
		}
		if lifecycle.Describe(sess, now).Phase != lifecycle.PhaseEndingSoon {
			continue
		}

		s.mu.Lock()
		_, seen := s.endingSoonSeen[sess.ID]
		if !seen {
			s.endingSoonSeen[sess.ID] = struct{}{}
		}
		s.mu.Unlock()
		if seen {
			continue
		}

		_, err := s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
			Type:        models.NotificationSessionEndingSoon,
			RecipientID: s.userID,
			SessionID:   sess.ID,
		})
		if err != nil {
			s.log.Error("failed to file ending-soon alert", "session_id", sess.ID, "error", err)
		}
	}
}
