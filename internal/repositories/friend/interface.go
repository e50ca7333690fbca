package friend

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for friendship storage
type Repository interface {
	// FetchFriends retrieves a user's friends with profile fields
	// denormalized at fetch time
	FetchFriends(ctx context.Context, input *FetchFriendsInput) (*FetchFriendsOutput, error)

	// FetchFriendRequests retrieves pending requests addressed to the
	// user
	FetchFriendRequests(ctx context.Context, input *FetchFriendRequestsInput) (*FetchFriendRequestsOutput, error)

	// SendFriendRequest creates a pending request
	SendFriendRequest(ctx context.Context, input *SendFriendRequestInput) (*models.FriendRequest, error)

	// AcceptFriendRequest deletes the request and creates the
	// friendship in both directions
	AcceptFriendRequest(ctx context.Context, input *AcceptFriendRequestInput) error

	// RejectFriendRequest deletes the request without creating a
	// friendship
	RejectFriendRequest(ctx context.Context, input *RejectFriendRequestInput) error

	// RemoveFriend removes the friendship in both directions
	RemoveFriend(ctx context.Context, input *RemoveFriendInput) error
}
