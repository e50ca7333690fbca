package social

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/repositories/friend"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/tag"
	"github.com/vibemap/vibemap/internal/repositories/vouch"
)

const testUserID = "user-me"

type SocialTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	ctx    context.Context

	friendRepo       friend.Repository
	profileRepo      profile.Repository
	tagRepo          tag.Repository
	notificationRepo notification.Repository
	vouchRepo        vouch.Repository

	svc *service
}

func (s *SocialTestSuite) SetupTest() {
	s.ctx = context.Background()

	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr
	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})

	s.friendRepo, err = friend.NewRedis(&friend.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.profileRepo, err = profile.NewRedis(&profile.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.tagRepo, err = tag.NewRedis(&tag.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.notificationRepo, err = notification.NewRedis(&notification.Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.vouchRepo, err = vouch.NewRedis(&vouch.Config{RedisClient: s.client})
	s.Require().NoError(err)

	svc, err := New(&Config{
		UserID:           testUserID,
		FriendRepo:       s.friendRepo,
		ProfileRepo:      s.profileRepo,
		TagRepo:          s.tagRepo,
		NotificationRepo: s.notificationRepo,
		VouchRepo:        s.vouchRepo,
	})
	s.Require().NoError(err)
	s.svc = svc
}

func (s *SocialTestSuite) TearDownTest() {
	s.client.Close()
	s.mr.Close()
}

func (s *SocialTestSuite) seedProfile(userID, username string) {
	err := s.profileRepo.SaveProfile(s.ctx, &profile.SaveProfileInput{
		Profile: &models.Profile{ID: userID, Username: username},
	})
	s.Require().NoError(err)
}

func (s *SocialTestSuite) inbox(userID string) []*models.NotificationRecord {
	out, err := s.notificationRepo.FetchNotifications(s.ctx, &notification.FetchNotificationsInput{RecipientID: userID})
	s.Require().NoError(err)
	return out.Records
}

func (s *SocialTestSuite) TestSendFriendRequest_Notifies() {
	req, err := s.svc.SendFriendRequest(s.ctx, "user-a")
	s.Require().NoError(err)
	s.Equal(testUserID, req.FromUserID)

	records := s.inbox("user-a")
	s.Require().Len(records, 1)
	s.Equal(models.NotificationFriendRequestReceived, records[0].Type)
	s.Equal(testUserID, records[0].ActorID)
}

func (s *SocialTestSuite) TestAcceptFriendRequest_RefetchesAndNotifies() {
	s.seedProfile("user-a", "asha")

	req, err := s.friendRepo.SendFriendRequest(s.ctx, &friend.SendFriendRequestInput{
		FromUserID: "user-a",
		ToUserID:   testUserID,
	})
	s.Require().NoError(err)

	friends, err := s.svc.AcceptFriendRequest(s.ctx, req.ID)
	s.Require().NoError(err)

	s.Require().Len(friends, 1)
	s.Equal("asha", friends[0].Username)

	records := s.inbox("user-a")
	s.Require().Len(records, 1)
	s.Equal(models.NotificationFriendRequestAccepted, records[0].Type)
}

func (s *SocialTestSuite) TestRemoveFriend_ScrubsOwnTags() {
	req, err := s.friendRepo.SendFriendRequest(s.ctx, &friend.SendFriendRequestInput{
		FromUserID: "user-a",
		ToUserID:   testUserID,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.friendRepo.AcceptFriendRequest(s.ctx, &friend.AcceptFriendRequestInput{
		RequestID: req.ID,
		UserID:    testUserID,
	}))

	tagOut, err := s.tagRepo.SaveTag(s.ctx, &tag.SaveTagInput{
		Tag: &models.Tag{
			Name:      "study",
			CreatorID: testUserID,
			MemberIDs: []string{"user-a", "user-b"},
		},
	})
	s.Require().NoError(err)

	s.Require().NoError(s.svc.RemoveFriend(s.ctx, "user-a"))

	got, err := s.tagRepo.GetTag(s.ctx, &tag.GetTagInput{TagID: tagOut.Tag.ID})
	s.Require().NoError(err)
	s.Equal([]string{"user-b"}, got.MemberIDs)

	out, err := s.friendRepo.FetchFriends(s.ctx, &friend.FetchFriendsInput{UserID: testUserID})
	s.Require().NoError(err)
	s.Empty(out.Friends)
}

func (s *SocialTestSuite) TestSaveTag_ForcesOwnership() {
	created, err := s.svc.SaveTag(s.ctx, &models.Tag{Name: "band"})
	s.Require().NoError(err)
	s.Equal(testUserID, created.CreatorID)
	s.NotEmpty(created.ID)
}

func (s *SocialTestSuite) TestDeleteTag_OwnerOnly() {
	other, err := s.tagRepo.SaveTag(s.ctx, &tag.SaveTagInput{
		Tag: &models.Tag{Name: "not mine", CreatorID: "user-a", MemberIDs: []string{testUserID}},
	})
	s.Require().NoError(err)

	err = s.svc.DeleteTag(s.ctx, other.Tag.ID)
	s.ErrorIs(err, ErrNotTagOwner)
}

func (s *SocialTestSuite) TestAssignFriendTags_FullReplacement() {
	a, err := s.svc.SaveTag(s.ctx, &models.Tag{Name: "a"})
	s.Require().NoError(err)
	b, err := s.svc.SaveTag(s.ctx, &models.Tag{Name: "b"})
	s.Require().NoError(err)
	c, err := s.svc.SaveTag(s.ctx, &models.Tag{Name: "c", MemberIDs: []string{"user-x"}})
	s.Require().NoError(err)

	// user-x starts in c only; the assignment is a, b.
	s.Require().NoError(s.svc.AssignFriendTags(s.ctx, "user-x", []string{a.ID, b.ID}))

	for _, tc := range []struct {
		tagID  string
		member bool
	}{
		{a.ID, true},
		{b.ID, true},
		{c.ID, false},
	} {
		got, err := s.tagRepo.GetTag(s.ctx, &tag.GetTagInput{TagID: tc.tagID})
		s.Require().NoError(err)
		s.Equal(tc.member, got.HasMember("user-x"))
	}

	// Only additions notify.
	records := s.inbox("user-x")
	s.Len(records, 2)
	for _, rec := range records {
		s.Equal(models.NotificationTagAdd, rec.Type)
	}
}

func (s *SocialTestSuite) TestSearchUsers_ExcludesSelf() {
	s.seedProfile(testUserID, "priya")
	s.seedProfile("user-a", "prateek")

	results, err := s.svc.SearchUsers(s.ctx, "pr")
	s.Require().NoError(err)

	s.Require().Len(results, 1)
	s.Equal("prateek", results[0].Username)
}

func (s *SocialTestSuite) TestVouchForUser_AppliesDecayingPoints() {
	s.seedProfile("user-a", "asha")

	awards := []int{10, 8, 6, 4, 2, 0}
	for _, want := range awards {
		v, err := s.svc.VouchForUser(s.ctx, "user-a", "guitar")
		s.Require().NoError(err)
		s.Equal(want, v.Points)
	}

	p, err := s.profileRepo.GetProfile(s.ctx, &profile.GetProfileInput{UserID: "user-a"})
	s.Require().NoError(err)
	s.Equal(30, p.CookieScore)
	s.Equal(30, p.SkillScores["guitar"])

	history, err := s.svc.VouchHistory(s.ctx, "user-a")
	s.Require().NoError(err)
	s.Len(history, 6)
}

func TestSocialTestSuite(t *testing.T) {
	suite.Run(t, new(SocialTestSuite))
}
