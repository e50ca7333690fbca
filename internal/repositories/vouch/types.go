package vouch

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vibemap/vibemap/internal/models"
)

// Config holds configuration for the Redis vouch repository
type Config struct {
	// Redis client
	RedisClient *redis.Client
}

// RecordVouchInput carries an endorsement to store.
type RecordVouchInput struct {
	VoucherID  string
	ReceiverID string
	Skill      string
}

// RecordVouchOutput carries the stored vouch with its computed award.
// An exhausted rater still records a zero-point vouch.
type RecordVouchOutput struct {
	Vouch *models.Vouch
}

// FetchVouchHistoryInput selects vouches received by a user.
type FetchVouchHistoryInput struct {
	ReceiverID string
	Limit      int
}

// FetchVouchHistoryOutput carries vouches, newest first.
type FetchVouchHistoryOutput struct {
	Vouches []*models.Vouch
}

// vouchRow is the backend wire shape for a vouch.
type vouchRow struct {
	ID              string    `json:"id"`
	VoucherID       string    `json:"voucher_id"`
	VoucherUsername string    `json:"voucher_username"`
	ReceiverID      string    `json:"receiver_id"`
	Skill           string    `json:"skill"`
	Points          int       `json:"points"`
	Timestamp       time.Time `json:"timestamp"`
}

func (r *vouchRow) toModel() *models.Vouch {
	return &models.Vouch{
		ID:              r.ID,
		VoucherUsername: r.VoucherUsername,
		Skill:           r.Skill,
		Points:          r.Points,
		Timestamp:       r.Timestamp,
	}
}
