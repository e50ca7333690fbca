package vouch

import (
	"context"
)

// Repository defines operations for vouch storage
type Repository interface {
	// RecordVouch stores an endorsement. The award is computed from how
	// many times this voucher has already vouched this skill for this
	// receiver.
	RecordVouch(ctx context.Context, input *RecordVouchInput) (*RecordVouchOutput, error)

	// FetchVouchHistory retrieves vouches received by a user, newest
	// first
	FetchVouchHistory(ctx context.Context, input *FetchVouchHistoryInput) (*FetchVouchHistoryOutput, error)
}
