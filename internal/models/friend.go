package models

// Friend is a materialized friends-list entry with profile fields
// denormalized at fetch time. It is refreshed by re-fetching, never
// patched by push events.
type Friend struct {
	// ID is the friend's user id
	ID string

	// Username is the display name at fetch time
	Username string

	// Branch and Year are profile details shown on cards
	Branch string
	Year   int

	// CookieScore is the friend's reputation total at fetch time
	CookieScore int

	// MutualFriends is the number of friends in common
	MutualFriends int
}

// FriendRequest is a pending, directed friendship request.
type FriendRequest struct {
	// ID is the request's unique identifier
	ID string

	// FromUserID sent the request
	FromUserID string

	// ToUserID received it
	ToUserID string
}
