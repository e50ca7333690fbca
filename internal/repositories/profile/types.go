package profile

import (
	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis profile repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// GetProfileInput identifies a user.
type GetProfileInput struct {
	UserID string
}

// GetProfilesInput identifies a batch of users.
type GetProfilesInput struct {
	UserIDs []string
}

// GetProfilesOutput maps user ID to profile for the users that exist.
type GetProfilesOutput struct {
	Profiles map[string]*models.Profile
}

// SaveProfileInput carries the profile to store.
type SaveProfileInput struct {
	Profile *models.Profile
}

// ApplyVouchInput adds points to a user's scores.
type ApplyVouchInput struct {
	UserID string
	Skill  string
	Points int
}

// SearchProfilesInput is a username prefix query. SearcherID is always
// excluded from results.
type SearchProfilesInput struct {
	Query      string
	SearcherID string
	Limit      int
}

// SearchProfilesOutput carries matching profiles.
type SearchProfilesOutput struct {
	Profiles []*models.Profile
}

// profileRow is the backend wire shape for a profile.
type profileRow struct {
	ID          string         `json:"id"`
	Username    string         `json:"username"`
	Bio         string         `json:"bio,omitempty"`
	Branch      string         `json:"branch,omitempty"`
	Year        int            `json:"year,omitempty"`
	Expertise   []string       `json:"expertise,omitempty"`
	Interests   []string       `json:"interests,omitempty"`
	CookieScore int            `json:"cookie_score"`
	SkillScores map[string]int `json:"skill_scores,omitempty"`
	Privacy     string         `json:"privacy,omitempty"`
}

func rowFromModel(p *models.Profile) *profileRow {
	return &profileRow{
		ID:          p.ID,
		Username:    p.Username,
		Bio:         p.Bio,
		Branch:      p.Branch,
		Year:        p.Year,
		Expertise:   p.Expertise,
		Interests:   p.Interests,
		CookieScore: p.CookieScore,
		SkillScores: p.SkillScores,
		Privacy:     p.Privacy,
	}
}

func (r *profileRow) toModel() *models.Profile {
	skills := r.SkillScores
	if skills == nil {
		skills = map[string]int{}
	}

	return &models.Profile{
		ID:          r.ID,
		Username:    r.Username,
		Bio:         r.Bio,
		Branch:      r.Branch,
		Year:        r.Year,
		Expertise:   r.Expertise,
		Interests:   r.Interests,
		CookieScore: r.CookieScore,
		SkillScores: skills,
		Privacy:     r.Privacy,
	}
}
