package vouch

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

func (s *RedisRepositoryTestSuite) record(voucherID, receiverID, skill string) int {
	out, err := s.repo.RecordVouch(s.ctx, &RecordVouchInput{
		VoucherID:  voucherID,
		ReceiverID: receiverID,
		Skill:      skill,
	})
	s.Require().NoError(err)
	return out.Vouch.Points
}

func (s *RedisRepositoryTestSuite) TestRecordVouch_DecayingAwards() {
	expected := []int{10, 8, 6, 4, 2, 0, 0}
	for _, want := range expected {
		s.Equal(want, s.record("user-1", "user-2", "guitar"))
	}
}

func (s *RedisRepositoryTestSuite) TestRecordVouch_CountersAreScoped() {
	s.Equal(10, s.record("user-1", "user-2", "guitar"))

	// A different skill, receiver or voucher starts fresh.
	s.Equal(10, s.record("user-1", "user-2", "dsa"))
	s.Equal(10, s.record("user-1", "user-3", "guitar"))
	s.Equal(10, s.record("user-4", "user-2", "guitar"))

	// The original counter kept its place.
	s.Equal(8, s.record("user-1", "user-2", "guitar"))
}

func (s *RedisRepositoryTestSuite) TestRecordVouch_SelfRejected() {
	_, err := s.repo.RecordVouch(s.ctx, &RecordVouchInput{
		VoucherID:  "user-1",
		ReceiverID: "user-1",
		Skill:      "guitar",
	})
	s.Error(err)
}

func (s *RedisRepositoryTestSuite) TestFetchVouchHistory() {
	s.Require().NoError(s.mr.Set("profile:user-1", `{"id":"user-1","username":"priya"}`))

	s.record("user-1", "user-2", "guitar")
	s.record("user-1", "user-2", "guitar")
	s.record("user-3", "user-2", "dsa")

	out, err := s.repo.FetchVouchHistory(s.ctx, &FetchVouchHistoryInput{ReceiverID: "user-2"})
	s.Require().NoError(err)

	s.Require().Len(out.Vouches, 3)
	// Newest first.
	s.Equal("dsa", out.Vouches[0].Skill)
	s.Equal("priya", out.Vouches[1].VoucherUsername)
	s.Equal(8, out.Vouches[1].Points)
	s.Equal(10, out.Vouches[2].Points)
}

func (s *RedisRepositoryTestSuite) TestFetchVouchHistory_Empty() {
	out, err := s.repo.FetchVouchHistory(s.ctx, &FetchVouchHistoryInput{ReceiverID: "nobody"})
	s.Require().NoError(err)
	s.Empty(out.Vouches)
}

func TestRedisRepositoryTestSuite(t *testing.T) {
	suite.Run(t, new(RedisRepositoryTestSuite))
}
