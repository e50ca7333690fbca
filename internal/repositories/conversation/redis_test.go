package conversation

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

func (s *RedisRepositoryTestSuite) TestGetOrCreateConversation_OnePerPair() {
	first, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	s.Require().NoError(err)
	s.NotEmpty(first.ID)
	s.Equal([]string{"user-1", "user-2"}, first.ParticipantIDs)

	// Same pair in the opposite order resolves to the same thread.
	second, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-2",
		OtherUserID: "user-1",
	})
	s.Require().NoError(err)
	s.Equal(first.ID, second.ID)
}

func (s *RedisRepositoryTestSuite) TestGetOrCreateConversation_SelfRejected() {
	_, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-1",
	})
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestFetchConversations() {
	a, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	s.Require().NoError(err)

	b, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-3",
	})
	s.Require().NoError(err)

	out, err := s.repo.FetchConversations(s.ctx, &FetchConversationsInput{UserID: "user-1"})
	s.Require().NoError(err)
	s.Len(out.Conversations, 2)

	ids := []string{out.Conversations[0].ID, out.Conversations[1].ID}
	s.ElementsMatch([]string{a.ID, b.ID}, ids)

	// user-4 has no conversations.
	empty, err := s.repo.FetchConversations(s.ctx, &FetchConversationsInput{UserID: "user-4"})
	s.Require().NoError(err)
	s.Empty(empty.Conversations)
}

func (s *RedisRepositoryTestSuite) TestSendAndFetchDirectMessages() {
	convo, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	s.Require().NoError(err)

	first, err := s.repo.SendDirectMessage(s.ctx, &SendDirectMessageInput{
		ConversationID: convo.ID,
		SenderID:       "user-1",
		Text:           "free for chai?",
	})
	s.Require().NoError(err)
	s.NotEmpty(first.ID)

	_, err = s.repo.SendDirectMessage(s.ctx, &SendDirectMessageInput{
		ConversationID: convo.ID,
		SenderID:       "user-2",
		Text:           "always",
	})
	s.Require().NoError(err)

	out, err := s.repo.FetchDirectMessages(s.ctx, &FetchDirectMessagesInput{ConversationID: convo.ID})
	s.Require().NoError(err)

	s.Require().Len(out.Messages, 2)
	s.Equal("free for chai?", out.Messages[0].Text)
	s.Equal("always", out.Messages[1].Text)
}

func (s *RedisRepositoryTestSuite) TestSendDirectMessage_UnknownConversation() {
	_, err := s.repo.SendDirectMessage(s.ctx, &SendDirectMessageInput{
		ConversationID: "nope",
		SenderID:       "user-1",
		Text:           "hello",
	})
	s.ErrorIs(err, ErrConversationNotFound)
}

func (s *RedisRepositoryTestSuite) TestSendDirectMessage_PublishesEcho() {
	convo, err := s.repo.GetOrCreateConversation(s.ctx, &GetOrCreateConversationInput{
		UserID:      "user-1",
		OtherUserID: "user-2",
	})
	s.Require().NoError(err)

	sub := s.client.Subscribe(s.ctx, "feed:direct_messages:"+convo.ID)
	_, err = sub.Receive(s.ctx)
	s.Require().NoError(err)
	defer sub.Close()

	sent, err := s.repo.SendDirectMessage(s.ctx, &SendDirectMessageInput{
		ConversationID: convo.ID,
		SenderID:       "user-1",
		Text:           "free for chai?",
	})
	s.Require().NoError(err)

	msg, err := sub.ReceiveMessage(s.ctx)
	s.Require().NoError(err)
	s.Contains(msg.Payload, sent.ID)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
