package tag

import (
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis tag repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// SaveTagInput carries the tag to store.
type SaveTagInput struct {
	Tag *models.Tag
}

// SaveTagOutput carries the tag as stored, with its assigned ID.
type SaveTagOutput struct {
	Tag *models.Tag
}

// GetTagInput identifies a tag.
type GetTagInput struct {
	TagID string
}

// DeleteTagInput identifies the tag to remove.
type DeleteTagInput struct {
	TagID string
}

// FetchTagsForUserInput selects tags the user created or belongs to.
type FetchTagsForUserInput struct {
	UserID string
}

// FetchTagsForUserOutput carries the user's tags.
type FetchTagsForUserOutput struct {
	Tags []*models.Tag
}

// SetTagMembersInput replaces the member list. The full list is sent,
// not a diff.
type SetTagMembersInput struct {
	TagID     string
	MemberIDs []string
}

// tagRow is the backend wire shape for a tag.
type tagRow struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Color     string   `json:"color,omitempty"`
	Emoji     string   `json:"emoji,omitempty"`
	CreatorID string   `json:"creator_id"`
	MemberIDs []string `json:"member_ids"`
}

func rowFromModel(t *models.Tag) *tagRow {
	return &tagRow{
		ID:        t.ID,
		Name:      t.Name,
		Color:     t.Color,
		Emoji:     t.Emoji,
		CreatorID: t.CreatorID,
		MemberIDs: t.MemberIDs,
	}
}

func (r *tagRow) toModel() *models.Tag {
	members := r.MemberIDs
	if members == nil {
		members = []string{}
	}

	return &models.Tag{
		ID:        r.ID,
		Name:      r.Name,
		Color:     r.Color,
		Emoji:     r.Emoji,
		CreatorID: r.CreatorID,
		MemberIDs: members,
	}
}
