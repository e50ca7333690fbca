package friend

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
	friendsKeyPrefix   = "friends:"
	requestKeyPrefix   = "friend_request:"
	requestInboxPrefix = "friend_requests_in:"
	profileKeyPrefix   = "profile:" // read-only join for friend cards
)

var (
	// ErrRequestNotFound is returned when a friend request is not found
	ErrRequestNotFound = errors.New("friend request not found")

	// ErrAlreadyFriends is returned when a request targets an existing
	// friend
	ErrAlreadyFriends = errors.New("already friends")

	// ErrRequestPending is returned when a duplicate request exists
	ErrRequestPending = errors.New("friend request already pending")

	// ErrNotRecipient is returned when a user acts on a request that is
	// not addressed to them
	ErrNotRecipient = errors.New("request is not addressed to this user")
)

// redisRepository implements the Repository interface using Redis
type redisRepository struct {
	client *redis.Client
}

// NewRedis creates a new Redis-backed friend repository
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

// FetchFriends retrieves a user's friends with profile fields and the
// mutual friend count joined in, sorted by username.
func (r *redisRepository) FetchFriends(ctx context.Context, input *FetchFriendsInput) (*FetchFriendsOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, friendsKeyPrefix+input.UserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get friends: %w", err)
	}

	friends := make([]*models.Friend, 0, len(ids))
	for _, id := range ids {
		entry := &models.Friend{ID: id, Username: "Unknown"}

		if payload, err := r.client.Get(ctx, profileKeyPrefix+id).Result(); err == nil {
			var row struct {
				Username    string `json:"username"`
				Branch      string `json:"branch"`
				Year        int    `json:"year"`
				CookieScore int    `json:"cookie_score"`
			}
			if err := json.Unmarshal([]byte(payload), &row); err == nil && row.Username != "" {
				entry.Username = row.Username
				entry.Branch = row.Branch
				entry.Year = row.Year
				entry.CookieScore = row.CookieScore
			}
		}

		mutual, err := r.client.SInter(ctx, friendsKeyPrefix+input.UserID, friendsKeyPrefix+id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to count mutual friends: %w", err)
		}
		entry.MutualFriends = len(mutual)

		friends = append(friends, entry)
	}

	sort.Slice(friends, func(i, j int) bool {
		return friends[i].Username < friends[j].Username
	})

	return &FetchFriendsOutput{Friends: friends}, nil
}

// FetchFriendRequests retrieves pending requests addressed to the user.
func (r *redisRepository) FetchFriendRequests(ctx context.Context, input *FetchFriendRequestsInput) (*FetchFriendRequestsOutput, error) {
	if input == nil || input.UserID == "" {
		return nil, errors.New("input and user ID cannot be empty")
	}

	ids, err := r.client.SMembers(ctx, requestInboxPrefix+input.UserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get request inbox: %w", err)
	}

	requests := make([]*models.FriendRequest, 0, len(ids))
	for _, id := range ids {
		row, err := r.getRequestRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				continue
			}
			return nil, err
		}
		requests = append(requests, row.toModel())
	}

	sort.Slice(requests, func(i, j int) bool {
		return requests[i].ID < requests[j].ID
	})

	return &FetchFriendRequestsOutput{Requests: requests}, nil
}

// SendFriendRequest creates a pending request. Sending to an existing
// friend or duplicating a pending request is an error.
func (r *redisRepository) SendFriendRequest(ctx context.Context, input *SendFriendRequestInput) (*models.FriendRequest, error) {
	if input == nil || input.FromUserID == "" || input.ToUserID == "" {
		return nil, errors.New("input, from and to user IDs cannot be empty")
	}

	if input.FromUserID == input.ToUserID {
		return nil, errors.New("cannot send a friend request to yourself")
	}

	isFriend, err := r.client.SIsMember(ctx, friendsKeyPrefix+input.FromUserID, input.ToUserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to check friendship: %w", err)
	}
	if isFriend {
		return nil, ErrAlreadyFriends
	}

	pending, err := r.client.SMembers(ctx, requestInboxPrefix+input.ToUserID).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get request inbox: %w", err)
	}
	for _, id := range pending {
		row, err := r.getRequestRow(ctx, id)
		if err != nil {
			if errors.Is(err, ErrRequestNotFound) {
				continue
			}
			return nil, err
		}
		if row.FromUserID == input.FromUserID {
			return nil, ErrRequestPending
		}
	}

	row := &requestRow{
		ID:         uuid.New().String(),
		FromUserID: input.FromUserID,
		ToUserID:   input.ToUserID,
	}

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, requestKeyPrefix+row.ID, payload, 0)
	pipe.SAdd(ctx, requestInboxPrefix+row.ToUserID, row.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to save request: %w", err)
	}

	return row.toModel(), nil
}

// AcceptFriendRequest creates the friendship in both directions and
// deletes the request.
func (r *redisRepository) AcceptFriendRequest(ctx context.Context, input *AcceptFriendRequestInput) error {
	if input == nil || input.RequestID == "" || input.UserID == "" {
		return errors.New("input, request ID and user ID cannot be empty")
	}

	row, err := r.getRequestRow(ctx, input.RequestID)
	if err != nil {
		return err
	}

	if row.ToUserID != input.UserID {
		return ErrNotRecipient
	}

	pipe := r.client.Pipeline()
	pipe.SAdd(ctx, friendsKeyPrefix+row.FromUserID, row.ToUserID)
	pipe.SAdd(ctx, friendsKeyPrefix+row.ToUserID, row.FromUserID)
	pipe.Del(ctx, requestKeyPrefix+row.ID)
	pipe.SRem(ctx, requestInboxPrefix+row.ToUserID, row.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to accept request: %w", err)
	}

	return nil
}

// RejectFriendRequest deletes the request without side effects.
func (r *redisRepository) RejectFriendRequest(ctx context.Context, input *RejectFriendRequestInput) error {
	if input == nil || input.RequestID == "" || input.UserID == "" {
		return errors.New("input, request ID and user ID cannot be empty")
	}

	row, err := r.getRequestRow(ctx, input.RequestID)
	if err != nil {
		return err
	}

	if row.ToUserID != input.UserID {
		return ErrNotRecipient
	}

	pipe := r.client.Pipeline()
	pipe.Del(ctx, requestKeyPrefix+row.ID)
	pipe.SRem(ctx, requestInboxPrefix+row.ToUserID, row.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to reject request: %w", err)
	}

	return nil
}

// RemoveFriend removes the friendship in both directions.
func (r *redisRepository) RemoveFriend(ctx context.Context, input *RemoveFriendInput) error {
	if input == nil || input.UserID == "" || input.FriendID == "" {
		return errors.New("input, user ID and friend ID cannot be empty")
	}

	pipe := r.client.Pipeline()
	pipe.SRem(ctx, friendsKeyPrefix+input.UserID, input.FriendID)
	pipe.SRem(ctx, friendsKeyPrefix+input.FriendID, input.UserID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}

	return nil
}

func (r *redisRepository) getRequestRow(ctx context.Context, requestID string) (*requestRow, error) {
	payload, err := r.client.Get(ctx, requestKeyPrefix+requestID).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrRequestNotFound
		}
		return nil, fmt.Errorf("failed to get request: %w", err)
	}

	var row requestRow
	if err := json.Unmarshal([]byte(payload), &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal request: %w", err)
	}

	return &row, nil
}
