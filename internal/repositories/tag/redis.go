package tag

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

const (
	tagKeyPrefix   = "tag:"
	userTagsPrefix = "user_tags:" // per-user index of created and joined tags
)

// ErrTagNotFound is returned when a tag is not found
var ErrTagNotFound = errors.New("tag not found")

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed tag repository
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

// SaveTag creates or replaces a tag in Redis
func (r *redisRepository) SaveTag(ctx context.Context, input *SaveTagInput) (*SaveTagOutput, error) {
	if input == nil || input.Tag == nil {
		return nil, errors.New("input and tag cannot be nil")
	}

	if input.Tag.Name == "" {
		return nil, errors.New("tag name cannot be empty")
	}

	if input.Tag.CreatorID == "" {
		return nil, errors.New("creator ID cannot be empty")
	}

	row := rowFromModel(input.Tag)
	if row.ID == "" {
		row.ID = uuid.New().String()
	}

	var previousMembers []string
	if old, err := r.getRow(ctx, row.ID); err == nil {
		previousMembers = old.MemberIDs
	} else if !errors.Is(err, ErrTagNotFound) {
		return nil, err
	}

	if err := r.saveRow(ctx, row, previousMembers); err != nil {
		return nil, err
	}

	return &SaveTagOutput{Tag: row.toModel()}, nil
}

// GetTag retrieves a tag by ID from Redis
func (r *redisRepository) GetTag(ctx context.Context, input *GetTagInput) (*models.Tag, error) {
	if input == nil || input.TagID == "" {
		return nil, errors.New("input and tag ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.TagID)
	if err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

// DeleteTag removes a tag and its index entries
func (r *redisRepository) DeleteTag(ctx context.Context, input *DeleteTagInput) error {
	if input == nil || input.TagID == "" {
		return errors.New("input and tag ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.TagID)
	if err != nil {
		return err
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, tagKeyPrefix+row.ID)
	pipe.SRem(ctx, userTagsPrefix+row.CreatorID, row.ID)
	for _, id := range row.MemberIDs {
		pipe.SRem(ctx, userTagsPrefix+id, row.ID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}

	return nil
}

// FetchTagsForUser retrieves tags the user created or is a member of,
// sorted by name for stable display.
func (r *redisRepository) FetchTagsForUser(ctx context.Context, input *FetchTagsForUserInput) (*FetchTagsForUserOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, userTagsPrefix+input.UserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get user tag index: %w", err)
	}

	tags := make([]*models.Tag, 0, len(ids))
	for _, id := range ids {
		row, err := r.getRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrTagNotFound) {
				continue
			}
			return nil, err
		}
		tags = append(tags, row.toModel())
	}

	sort.Slice(tags, func(i, j int) bool {
		return tags[i].Name < tags[j].Name
	})

	return &FetchTagsForUserOutput{Tags: tags}, nil
}

// SetTagMembers replaces the member list wholesale and returns the
// updated tag.
func (r *redisRepository) SetTagMembers(ctx context.Context, input *SetTagMembersInput) (*models.Tag, error) {
	if input == nil || input.TagID == "" {
		return nil, errors.New("input and tag ID cannot be empty")
	}

	row, err := r.getRow(ctx, input.TagID)
	if err != nil {
		return nil, err
	}

	previousMembers := row.MemberIDs
	row.MemberIDs = input.MemberIDs

	if err := r.saveRow(ctx, row, previousMembers); err != nil {
		return nil, err
	}

	return row.toModel(), nil
}

func (r *redisRepository) getRow(ctx context.Context, tagID string) (*tagRow, error) {
	payload, err := r.client.Get(ctx, tagKeyPrefix+tagID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrTagNotFound
		}
		return nil, fmt.Errorf("failed to get tag: %w", err)
	}

	var row tagRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tag: %w", err)
	}

	return &row, nil
}

func (r *redisRepository) saveRow(ctx context.Context, row *tagRow, previousMembers []string) error {
	payload, err := json.Marshal(row)
	if err != nil {
		return fmt.Errorf("failed to marshal tag: %w", err)
	}

	current := make(map[string]struct{}, len(row.MemberIDs))
	for _, id := range row.MemberIDs {
		current[id] = struct{}{}
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, tagKeyPrefix+row.ID, payload, 0)
	pipe.SAdd(ctx, userTagsPrefix+row.CreatorID, row.ID)
	for _, id := range row.MemberIDs {
		pipe.SAdd(ctx, userTagsPrefix+id, row.ID)
	}
	for _, id := range previousMembers {
		if _, ok := current[id]; !ok && id != row.CreatorID {
			pipe.SRem(ctx, userTagsPrefix+id, row.ID)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save tag: %w", err)
	}

	return nil
}
