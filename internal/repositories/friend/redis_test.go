package friend

import (
	"context"
	"strconv"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"
)

type RedisRepositoryTestSuite struct {
	suite.Suite
	mr     *miniredis.Miniredis
	client *redis.Client
	repo   *redisRepository
	ctx    context.Context
}

func (s *RedisRepositoryTestSuite) SetupTest() {
	mr, err := miniredis.Run()
	s.Require().NoError(err)
	s.mr = mr

	s.client = redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s.ctx = context.Background()

	repo, err := NewRedis(&Config{RedisClient: s.client})
	s.Require().NoError(err)
	s.repo = repo
}

func (s *RedisRepositoryTestSuite) TearDownTest() {
	if s.client != nil {
		s.client.Close()
	}
	if s.mr != nil {
		s.mr.Close()
	}
}

func (s *RedisRepositoryTestSuite) seedProfile(userID, username string, cookieScore int) {
	s.Require().NoError(s.mr.Set("profile:"+userID,
		`{"id":"`+userID+`","username":"`+username+`","branch":"CSE","year":2,"cookie_score":`+strconv.Itoa(cookieScore)+`}`))
}

func (s *RedisRepositoryTestSuite) befriend(a, b string) {
	req, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: a,
		ToUserID:   b,
	})
	s.Require().NoError(err)
	s.Require().NoError(s.repo.AcceptFriendRequest(s.ctx, &AcceptFriendRequestInput{
		RequestID: req.ID,
		UserID:    b,
	}))
}

func (s *RedisRepositoryTestSuite) TestSendAndFetchFriendRequests() {
	req, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.Require().NoError(err)
	s.NotEmpty(req.ID)

	out, err := s.repo.FetchFriendRequests(s.ctx, &FetchFriendRequestsInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Require().Len(out.Requests, 1)
	s.Equal("user-1", out.Requests[0].FromUserID)

	// The sender's own inbox is untouched.
	empty, err := s.repo.FetchFriendRequests(s.ctx, &FetchFriendRequestsInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Empty(empty.Requests)
}

func (s *RedisRepositoryTestSuite) TestSendFriendRequest_DuplicatePending() {
	_, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.Require().NoError(err)

	_, err = s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.ErrorIs(err, ErrRequestPending)
}

func (s *RedisRepositoryTestSuite) TestSendFriendRequest_AlreadyFriends() {
	s.befriend("user-1", "user-2")

	_, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.ErrorIs(err, ErrAlreadyFriends)
}

func (s *RedisRepositoryTestSuite) TestAcceptFriendRequest_BothDirections() {
	s.seedProfile("user-1", "priya", 12)
	s.seedProfile("user-2", "arjun", 4)

	s.befriend("user-1", "user-2")

	mine, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Require().Len(mine.Friends, 1)
	s.Equal("arjun", mine.Friends[0].Username)
	s.Equal(4, mine.Friends[0].CookieScore)

	theirs, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Require().Len(theirs.Friends, 1)
	s.Equal("priya", theirs.Friends[0].Username)

	// The request is consumed.
	inbox, err := s.repo.FetchFriendRequests(s.ctx, &FetchFriendRequestsInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Empty(inbox.Requests)
}

func (s *RedisRepositoryTestSuite) TestAcceptFriendRequest_WrongRecipient() {
	req, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.Require().NoError(err)

	err = s.repo.AcceptFriendRequest(s.ctx, &AcceptFriendRequestInput{
		RequestID: req.ID,
		UserID:    "user-3",
	})
	s.ErrorIs(err, ErrNotRecipient)
}

func (s *RedisRepositoryTestSuite) TestRejectFriendRequest() {
	req, err := s.repo.SendFriendRequest(s.ctx, &SendFriendRequestInput{
		FromUserID: "user-1",
		ToUserID:   "user-2",
	})
	s.Require().NoError(err)

	s.Require().NoError(s.repo.RejectFriendRequest(s.ctx, &RejectFriendRequestInput{
		RequestID: req.ID,
		UserID:    "user-2",
	}))

	out, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Empty(out.Friends)
}

func (s *RedisRepositoryTestSuite) TestMutualFriends() {
	// user-1 and user-2 share user-3.
	s.befriend("user-1", "user-2")
	s.befriend("user-1", "user-3")
	s.befriend("user-2", "user-3")

	s.seedProfile("user-2", "arjun", 0)

	out, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-1"})
	s.Require().NoError(err)

	for _, f := range out.Friends {
		if f.ID == "user-2" {
			s.Equal(1, f.MutualFriends)
		}
	}
}

func (s *RedisRepositoryTestSuite) TestRemoveFriend_BothDirections() {
	s.befriend("user-1", "user-2")

	s.Require().NoError(s.repo.RemoveFriend(s.ctx, &RemoveFriendInput{
		UserID:   "user-1",
		FriendID: "user-2",
	}))

	mine, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Empty(mine.Friends)

	theirs, err := s.repo.FetchFriends(s.ctx, &FetchFriendsInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Empty(theirs.Friends)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
