package vouch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/vouchscore"
)

const (
	countKeyPrefix   = "vouch_count:"
	historyKeyPrefix = "vouch_history:"
	profileKeyPrefix = "profile:"

	defaultHistoryLimit = 50
)

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed vouch repository
func NewRedis(cfg *Config) (*redisRepository, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}

	if cfg.RedisClient == nil {
		return nil, errors.New("redis client cannot be nil")
	}

	if err := cfg.RedisClient.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &redisRepository{
		client: cfg.RedisClient,
	}, nil
}

// RecordVouch stores an endorsement, awarding points on the decaying
// schedule for repeat vouches by the same rater.
func (r *redisRepository) RecordVouch(ctx context.Context, input *RecordVouchInput) (*RecordVouchOutput, error) {
	if input == nil || input.VoucherID == "" || input.ReceiverID == "" || input.Skill == "" {
		return nil, errors.New("input, voucher ID, receiver ID and skill cannot be empty")
	}

	if input.VoucherID == input.ReceiverID {
		return nil, errors.New("cannot vouch for yourself")
	}

	countKey := countKeyPrefix + input.VoucherID + ":" + input.ReceiverID + ":" + input.Skill
	count, err := r.client.Incr(ctx, countKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count prior vouches: %w", err)
	}

	row := &vouchRow{
		ID:              uuid.New().String(),
		VoucherID:       input.VoucherID,
		VoucherUsername: r.lookupUsername(ctx, input.VoucherID),
		ReceiverID:      input.ReceiverID,
		Skill:           input.Skill,
		Points:          vouchscore.Award(int(count) - 1),
		Timestamp:       time.Now(),
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal vouch: %w", err)
	}

	err = r.client.ZAdd(ctx, historyKeyPrefix+row.ReceiverID, redis.Z{
		Score:  float64(row.Timestamp.UnixNano()),
		Member: string(payload),
	}).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to save vouch: %w", err)
	}

	return &RecordVouchOutput{Vouch: row.toModel()}, nil
}

// FetchVouchHistory retrieves vouches received by a user, newest first.
func (r *redisRepository) FetchVouchHistory(ctx context.Context, input *FetchVouchHistoryInput) (*FetchVouchHistoryOutput, error) {
	if input == nil || input.ReceiverID == "" {
		return nil, errors.New("input and receiver ID cannot be empty")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultHistoryLimit
	}

	payloads, err := r.client.ZRevRange(ctx, historyKeyPrefix+input.ReceiverID, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get vouch history: %w", err)
	}

	vouches := make([]*models.Vouch, 0, len(payloads))
	for _, payload := range payloads {
		var row vouchRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vouch: %w", err)
		}
		vouches = append(vouches, row.toModel())
	}

	return &FetchVouchHistoryOutput{Vouches: vouches}, nil
}

func (r *redisRepository) lookupUsername(ctx context.Context, userID string) string {
	payload, err := r.client.Get(ctx, profileKeyPrefix+userID).Result()
	if err != nil {
		return "Unknown"
	}

	var row struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal([]byte(payload), &row); err != nil || row.Username == "" {
		return "Unknown"
	}

	return row.Username
}
