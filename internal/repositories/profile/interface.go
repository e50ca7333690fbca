package profile

import (
	"context"

	"github.com/vibemap/vibemap/internal/models"
)

// Repository defines operations for user profile storage
type Repository interface {
	// GetProfile retrieves a profile by user ID
	GetProfile(ctx context.Context, input *GetProfileInput) (*models.Profile, error)

	// GetProfiles retrieves several profiles in one round trip. Missing
	// users are skipped, not errors.
	GetProfiles(ctx context.Context, input *GetProfilesInput) (*GetProfilesOutput, error)

	// SaveProfile creates or replaces a profile
	SaveProfile(ctx context.Context, input *SaveProfileInput) error

	// ApplyVouch adds vouch points to a user's cookie score and to the
	// per-skill breakdown
	ApplyVouch(ctx context.Context, input *ApplyVouchInput) (*models.Profile, error)

	// SearchProfiles finds users by username prefix, excluding the
	// searcher
	SearchProfiles(ctx context.Context, input *SearchProfilesInput) (*SearchProfilesOutput, error)
}
