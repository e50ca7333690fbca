package message

import (
	"context"
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

func (s *RedisRepositoryTestSuite) TestSendAndFetchMessages() {
	s.Require().NoError(s.mr.Set("profile:user-1", `{"id":"user-1","username":"priya"}`))

	first, err := s.repo.SendMessage(s.ctx, &SendMessageInput{
		SessionID: "sess-1",
		SenderID:  "user-1",
		Text:      "omw",
	})
	s.Require().NoError(err)
	s.NotEmpty(first.ID)
	s.Equal("priya", first.SenderName)

	_, err = s.repo.SendMessage(s.ctx, &SendMessageInput{
		SessionID: "sess-1",
		SenderID:  "user-2",
		Text:      "see you there",
	})
	s.Require().NoError(err)

	out, err := s.repo.FetchMessages(s.ctx, &FetchMessagesInput{SessionID: "sess-1"})
	s.Require().NoError(err)

	s.Require().Len(out.Messages, 2)
	// Oldest first.
	s.Equal("omw", out.Messages[0].Text)
	s.Equal("priya", out.Messages[0].SenderName)
	s.Equal("see you there", out.Messages[1].Text)
	s.Equal("Unknown", out.Messages[1].SenderName)
}

func (s *RedisRepositoryTestSuite) TestFetchMessages_ScopedToSession() {
	_, err := s.repo.SendMessage(s.ctx, &SendMessageInput{
		SessionID: "sess-1",
		SenderID:  "user-1",
		Text:      "hello sess-1",
	})
	s.Require().NoError(err)

	out, err := s.repo.FetchMessages(s.ctx, &FetchMessagesInput{SessionID: "sess-2"})
	s.Require().NoError(err)
	s.Empty(out.Messages)
}

func (s *RedisRepositoryTestSuite) TestSendMessage_EmptyText() {
	_, err := s.repo.SendMessage(s.ctx, &SendMessageInput{
		SessionID: "sess-1",
		SenderID:  "user-1",
	})
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestSendMessage_PublishesEcho() {
	sub := s.client.Subscribe(s.ctx, "feed:session_messages:sess-1")
	_, err := sub.Receive(s.ctx)
	s.Require().NoError(err)
	defer sub.Close()

	sent, err := s.repo.SendMessage(s.ctx, &SendMessageInput{
		SessionID: "sess-1",
		SenderID:  "user-1",
		Text:      "omw",
	})
	s.Require().NoError(err)

	msg, err := sub.ReceiveMessage(s.ctx)
	s.Require().NoError(err)
	s.Contains(msg.Payload, sent.ID)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
