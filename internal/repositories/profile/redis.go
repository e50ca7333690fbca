package profile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

const (
	profileKeyPrefix = "profile:"
	profileIndexKey  = "profiles"

	defaultSearchLimit = 20
)

// ErrProfileNotFound is returned when a profile is not found
var ErrProfileNotFound = errors.New("profile not found")

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed profile repository
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

// GetProfile retrieves a profile by user ID from Redis
func (r *redisRepository) GetProfile(ctx context.Context, input *GetProfileInput) (*models.Profile, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

// GetProfiles retrieves a batch of profiles in one pipeline. Users
// without a profile are omitted from the result.
func (r *redisRepository) GetProfiles(ctx context.Context, input *GetProfilesInput) (*GetProfilesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	out := &GetProfilesOutput{Profiles: make(map[string]*models.Profile, len(input.UserIDs))}
	if len(input.UserIDs) == 0 {
		return out, nil
	}

	pipe := r.client.Pipeline()
	cmds := make(map[string]*redis.StringCmd, len(input.UserIDs))
	for _, id := range input.UserIDs {
		cmds[id] = pipe.Get(ctx, profileKeyPrefix+id)
	}
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to get profiles: %w", err)
	}

	for id, cmd := range cmds {
		payload, err := cmd.Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
		}

		var row profileRow
		if err := json.Unmarshal([]byte(payload), &row); err != nil {
			return nil, fmt.Errorf("failed to unmarshal profile %s: %w", id, err)
		}
		out.Profiles[id] = row.toModel()
	}

	return out, nil
}

// SaveProfile creates or replaces a profile in Redis
func (r *redisRepository) SaveProfile(ctx context.Context, input *SaveProfileInput) error {
	if input == nil || input.Profile == nil {
		return errors.New("input and profile cannot be nil")
	}

	if input.Profile.ID == "" {
		return errors.New("profile ID cannot be empty")
	}

	return r.saveRow(ctx, rowFromModel(input.Profile))
}

// ApplyVouch bumps a user's cookie score and per-skill score by the
// awarded points and returns the updated profile.
func (r *redisRepository) ApplyVouch(ctx context.Context, input *ApplyVouchInput) (*models.Profile, error) {
	if input == nil || input.UserID == "" || input.Skill == "" {
		return nil, errors.New("input, user ID and skill cannot be empty")
	}

	row, err := r.getRow(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	row.CookieScore += input.Points
	if row.SkillScores == nil {
		row.SkillScores = map[string]int{}
	}
	row.SkillScores[input.Skill] += input.Points

	if err := r.saveRow(ctx, row); err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

// SearchProfiles finds users whose username starts with the query,
// case-insensitively. The searcher never sees themselves in results.
func (r *redisRepository) SearchProfiles(ctx context.Context, input *SearchProfilesInput) (*SearchProfilesOutput, error) {
	if input == nil {
		return nil, errors.New("input cannot be nil")
	}

	query := strings.ToLower(strings.TrimSpace(input.Query))
	if query == "" {
		return &SearchProfilesOutput{Profiles: []*models.Profile{}}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	ids, err := r.client.SMembers(ctx, profileIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get profile index: %w", err)
	}

	matches := make([]*models.Profile, 0, limit)
	for _, id := range ids {
		if id == input.SearcherID {
			continue
		}

		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrProfileNotFound) {
				continue
			}
			return nil, err
		}

		if !strings.HasPrefix(strings.ToLower(row.Username), query) {
			continue
		}

		matches = append(matches, row.toModel())
		if len(matches) >= limit {
			break
		}
	}

	return &SearchProfilesOutput{Profiles: matches}, nil
}

func (r *redisRepository) getRow(ctx context.Context, userID string) (*profileRow, error) {
	payload, err := r.client.Get(ctx, profileKeyPrefix+userID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	var row profileRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &row, nil
}

func (r *redisRepository) saveRow(ctx context.Context, row *profileRow) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, profileKeyPrefix+row.ID, payload, 0)
	pipe.SAdd(ctx, profileIndexKey, row.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	return nil
}
