package models

import (
	"time"
)

// Vouch is a peer endorsement of a skill. Points are computed by the
// server from the count of prior vouches by the same rater for the same
// skill; the client only displays the result.
type Vouch struct {
	// ID is the vouch's unique identifier
	ID string

	// VoucherUsername is the rater's display name
	VoucherUsername string

	// Skill is the endorsed skill string
	Skill string

	// Points is the server-computed award
	Points int

	// Timestamp is when the vouch was recorded
	Timestamp time.Time
}
