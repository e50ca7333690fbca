package alerts

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
)

const testUserID = "user-me"

type AlertsTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	ctx    context.Context

	notificationRepo notification.Repository
	profileRepo      profile.Repository
	sessionRepo      session.Repository
	tagRepo          tag.Repository
	feed             *realtime.Feed

	svc *service
}

func (s *AlertsTestSuite) SetupTest() {
	s.ctx = context.Background()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s.notificationRepo, err = notification.NewRedis(&notification.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.profileRepo, err = profile.NewRedis(&profile.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.sessionRepo, err = session.NewRedis(&session.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.tagRepo, err = tag.NewRedis(&tag.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.feed, err = realtime.New(&realtime.Config{RedisClient: s.client})
	s.Require().NoError(err)

	svc, err := New(&Config{
		UserID:           testUserID,
		NotificationRepo: s.notificationRepo,
		ProfileRepo:      s.profileRepo,
		SessionRepo:      s.sessionRepo,
		TagRepo:          s.tagRepo,
		Feed:             s.feed,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *AlertsTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func (s *AlertsTestSuite) createRecord(t models.NotificationType, actorID, sessionID, tagID string) *models.NotificationRecord {
	rec, err := s.notificationRepo.CreateNotification(s.ctx, &notification.CreateNotificationInput{
		Type:        t,
		RecipientID: testUserID,
		ActorID:     actorID,
		SessionID:   sessionID,
		TagID:       tagID,
	})
	s.Require().NoError(err)
	return rec
}

func (s *AlertsTestSuite) TestEnrich_AllReferencesResolve() {
	err := s.profileRepo.SaveProfile(s.ctx, &profile.SaveProfileInput{
		Profile: &models.Profile{ID: "user-a", Username: "asha"},
	})
	s.Require().NoError(err)

	sessOut, err := s.sessionRepo.CreateSession(s.ctx, &session.CreateSessionInput{
		Session: &models.Session{
			Title:     "Chai break",
			Emoji:     "☕",
			Type:      models.SessionTypeVibe,
			CreatorID: "user-a",
		},
	})
	s.Require().NoError(err)

	tagOut, err := s.tagRepo.SaveTag(s.ctx, &tag.SaveTagInput{
		Tag: &models.Tag{Name: "close friends", CreatorID: "user-a"},
	})
	s.Require().NoError(err)

	rec := s.createRecord(models.NotificationSessionInvite, "user-a", sessOut.Session.ID, tagOut.Tag.ID)

	n := s.svc.Enrich(s.ctx, rec)

	s.Require().NotNil(n.Actor)
	s.Equal("asha", n.Actor.Username)
	s.Require().NotNil(n.Session)
	s.Equal("Chai break", n.Session.Title)
	s.Equal("☕", n.Session.Emoji)
	s.Require().NotNil(n.Tag)
	s.Equal("close friends", n.Tag.Name)
}

func (s *AlertsTestSuite) TestEnrich_MissingReferencesDegrade() {
	rec := s.createRecord(models.NotificationSessionInvite, "ghost-actor", "ghost-session", "ghost-tag")

	n := s.svc.Enrich(s.ctx, rec)

	s.Nil(n.Actor)
	s.Nil(n.Session)
	s.Nil(n.Tag)
	s.Equal(rec.ID, n.ID)
	s.Equal(models.NotificationSessionInvite, n.Type)
}

func (s *AlertsTestSuite) TestEnrich_PartialResolution() {
	err := s.profileRepo.SaveProfile(s.ctx, &profile.SaveProfileInput{
		Profile: &models.Profile{ID: "user-a", Username: "asha"},
	})
	s.Require().NoError(err)

	rec := s.createRecord(models.NotificationSessionJoin, "user-a", "ghost-session", "")

	n := s.svc.Enrich(s.ctx, rec)

	s.Require().NotNil(n.Actor)
	s.Equal("asha", n.Actor.Username)
	s.Nil(n.Session)
	s.Nil(n.Tag)
}

func (s *AlertsTestSuite) TestLoad_NewestFirst() {
	first := s.createRecord(models.NotificationSessionJoin, "", "", "")
	second := s.createRecord(models.NotificationTagAdd, "", "", "")

	s.Require().NoError(s.svc.Load(s.ctx))

	inbox := s.svc.Notifications()
	s.Require().Len(inbox, 2)
	s.Equal(second.ID, inbox[0].ID)
	s.Equal(first.ID, inbox[1].ID)
	s.Equal(2, s.svc.UnreadCount())
}

func (s *AlertsTestSuite) TestRun_AppliesInsertsAndDedups() {
	ctx, cancel := context.WithCancel(s.ctx)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.svc.Run(ctx)
	}()

	// Give the subscription time to attach.
	time.Sleep(50 * time.Millisecond)

	rec := s.createRecord(models.NotificationFriendRequestReceived, "", "", "")

	s.Require().Eventually(func() bool {
		return len(s.svc.Notifications()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	s.Equal(rec.ID, s.svc.Notifications()[0].ID)

	cancel()
	<-done
}

func (s *AlertsTestSuite) TestMarkReadAndUnreadCount() {
	rec := s.createRecord(models.NotificationSessionJoin, "", "", "")
	s.createRecord(models.NotificationTagAdd, "", "", "")
	s.Require().NoError(s.svc.Load(s.ctx))

	s.Require().NoError(s.svc.MarkRead(s.ctx, rec.ID))
	s.Equal(1, s.svc.UnreadCount())

	s.Require().NoError(s.svc.MarkAllRead(s.ctx))
	s.Equal(0, s.svc.UnreadCount())

	// Server state agrees after a fresh load.
	s.Require().NoError(s.svc.Load(s.ctx))
	s.Equal(0, s.svc.UnreadCount())
}

func (s *AlertsTestSuite) TestMarkRead_EarlierSnapshotsUntouched() {
	rec := s.createRecord(models.NotificationSessionJoin, "", "", "")
	s.createRecord(models.NotificationTagAdd, "", "", "")
	s.Require().NoError(s.svc.Load(s.ctx))

	before := s.svc.Notifications()

	s.Require().NoError(s.svc.MarkRead(s.ctx, rec.ID))
	s.Require().NoError(s.svc.MarkAllRead(s.ctx))
	s.Equal(0, s.svc.UnreadCount())

	// Snapshots handed out earlier keep the state they were taken with.
	for _, n := range before {
		s.False(n.IsRead)
	}
}

func (s *AlertsTestSuite) TestDelete() {
	rec := s.createRecord(models.NotificationSessionJoin, "", "", "")
	s.Require().NoError(s.svc.Load(s.ctx))

	s.Require().NoError(s.svc.Delete(s.ctx, rec.ID))
	s.Empty(s.svc.Notifications())

	s.Require().NoError(s.svc.Load(s.ctx))
	s.Empty(s.svc.Notifications())
}

func TestAlertsTestSuite(t *testing.T) {
	suite.Run(t, new(AlertsTestSuite))
}
