package friend

import (
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis friend repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// FetchFriendsInput identifies whose friends to fetch.
type FetchFriendsInput struct {
	UserID string
}

// FetchFriendsOutput carries the denormalized friends list.
type FetchFriendsOutput struct {
	Friends []*models.Friend
}

// FetchFriendRequestsInput identifies the request recipient.
type FetchFriendRequestsInput struct {
	UserID string
}

// FetchFriendRequestsOutput carries pending incoming requests.
type FetchFriendRequestsOutput struct {
	Requests []*models.FriendRequest
}

// SendFriendRequestInput creates a request from one user to another.
type SendFriendRequestInput struct {
	FromUserID string
	ToUserID   string
}

// AcceptFriendRequestInput identifies the request being accepted and
// the user accepting it.
type AcceptFriendRequestInput struct {
	RequestID string
	UserID    string
}

// RejectFriendRequestInput identifies the request being rejected.
type RejectFriendRequestInput struct {
	RequestID string
	UserID    string
}

// RemoveFriendInput removes FriendID from UserID's friends and vice
// versa.
type RemoveFriendInput struct {
	UserID   string
	FriendID string
}

// requestRow is the backend wire shape for a friend request.
type requestRow struct {
	ID         string `json:"id"`
	FromUserID string `json:"from_user_id"`
	ToUserID   string `json:"to_user_id"`
}

func (r *requestRow) toModel() *models.FriendRequest {
	return &models.FriendRequest{
		ID:         r.ID,
		FromUserID: r.FromUserID,
		ToUserID:   r.ToUserID,
	}
}
