package tag

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for friend tag storage
type Repository interface {
	// SaveTag creates or replaces a tag. A tag without an ID is
	// assigned one.
	SaveTag(ctx context.Context, input *SaveTagInput) (*SaveTagOutput, error)

	// GetTag retrieves a tag by ID
	GetTag(ctx context.Context, input *GetTagInput) (*models.Tag, error)

	// DeleteTag removes a tag
	DeleteTag(ctx context.Context, input *DeleteTagInput) error

	// FetchTagsForUser retrieves every tag the user created or is a
	// member of
	FetchTagsForUser(ctx context.Context, input *FetchTagsForUserInput) (*FetchTagsForUserOutput, error)

	// SetTagMembers replaces a tag's member list wholesale
	SetTagMembers(ctx context.Context, input *SetTagMembersInput) (*models.Tag, error)
}
