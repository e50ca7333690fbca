package tag

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/vibemap/vibemap/internal/models"
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

func (s *RedisRepositoryTestSuite) saveTag(name, creatorID string, members ...string) *models.Tag {
	out, err := s.repo.SaveTag(s.ctx, &SaveTagInput{
		Tag: &models.Tag{Name: name, CreatorID: creatorID, MemberIDs: members},
	})
	s.Require().NoError(err)
	return out.Tag
}

func (s *RedisRepositoryTestSuite) TestSaveTag_AssignsID() {
	created := s.saveTag("close friends", "user-1", "user-2")

	s.NotEmpty(created.ID)

	got, err := s.repo.GetTag(s.ctx, &GetTagInput{TagID: created.ID})
	s.Require().NoError(err)
	s.Equal("close friends", got.Name)
	s.Equal([]string{"user-2"}, got.MemberIDs)
}

func (s *RedisRepositoryTestSuite) TestGetTag_NotFound() {
	_, err := s.repo.GetTag(s.ctx, &GetTagInput{TagID: "nope"})
	s.ErrorIs(err, ErrTagNotFound)
}

func (s *RedisRepositoryTestSuite) TestFetchTagsForUser_CreatorAndMember() {
	s.saveTag("study group", "user-1", "user-2")
	s.saveTag("band", "user-3", "user-1")
	s.saveTag("unrelated", "user-3", "user-4")

	out, err := s.repo.FetchTagsForUser(s.ctx, &FetchTagsForUserInput{UserID: "user-1"})
	s.Require().NoError(err)

	s.Require().Len(out.Tags, 2)
	s.Equal("band", out.Tags[0].Name)
	s.Equal("study group", out.Tags[1].Name)
}

func (s *RedisRepositoryTestSuite) TestSetTagMembers_Replaces() {
	created := s.saveTag("study group", "user-1", "user-2", "user-3")

	updated, err := s.repo.SetTagMembers(s.ctx, &SetTagMembersInput{
		TagID:     created.ID,
		MemberIDs: []string{"user-3", "user-4"},
	})
	s.Require().NoError(err)
	s.Equal([]string{"user-3", "user-4"}, updated.MemberIDs)

	// user-2 dropped out of the index, user-4 joined it.
	gone, err := s.repo.FetchTagsForUser(s.ctx, &FetchTagsForUserInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Empty(gone.Tags)

	added, err := s.repo.FetchTagsForUser(s.ctx, &FetchTagsForUserInput{UserID: "user-4"})
	s.Require().NoError(err)
	s.Len(added.Tags, 1)
}

func (s *RedisRepositoryTestSuite) TestDeleteTag() {
	created := s.saveTag("study group", "user-1", "user-2")

	err := s.repo.DeleteTag(s.ctx, &DeleteTagInput{TagID: created.ID})
	s.Require().NoError(err)

	_, err = s.repo.GetTag(s.ctx, &GetTagInput{TagID: created.ID})
	s.ErrorIs(err, ErrTagNotFound)

	out, err := s.repo.FetchTagsForUser(s.ctx, &FetchTagsForUserInput{UserID: "user-2"})
	s.Require().NoError(err)
	s.Empty(out.Tags)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
