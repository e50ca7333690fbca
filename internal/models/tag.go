package models

// Tag is a user-defined friend group. Its only job in the core is to
// gate visibility of private sessions: a viewer sees a private session
// when they are a member of one of its visibility tags.
type Tag struct {
	// ID is the unique identifier for the tag
	ID string

	// Name is the display name
	Name string

	// Color is a CSS-style color string chosen by the creator
	Color string

	// Emoji decorates the tag in lists
	Emoji string

	// CreatorID is the user who owns the tag; only they may edit it
	CreatorID string

	// MemberIDs holds the friend user ids assigned to this tag.
	// Membership, not ownership, is what grants visibility.
	MemberIDs []string
}

// HasMember reports whether userID is assigned to the tag.
func (t *Tag) HasMember(userID string) bool {
	for _, id := range t.MemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
