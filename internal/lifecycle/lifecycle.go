// Package lifecycle derives a session's temporal state from its
// timestamps and the current time. Everything here is pure: callers
// recompute on a periodic tick rather than storing derived state.
package lifecycle

import (
	"fmt"
	"time"

	"github.com/vibemap/vibemap/internal/models"
)

// Phase is the derived temporal state of a session.
type Phase string

const (
	// PhaseScheduled means the event time is still in the future
	PhaseScheduled Phase = "scheduled"

	// PhaseActive means the session is running
	PhaseActive Phase = "active"

	// PhaseEndingSoon means less than a minute remains
	PhaseEndingSoon Phase = "ending_soon"

	// PhaseExpired means the duration has elapsed. The server is
	// expected to close the session but may not have yet.
	PhaseExpired Phase = "expired"
)

// BorrowGrace is how long a borrow session waits for a lender before
// the client hides it. Advisory only; server closure is authoritative.
const BorrowGrace = 30 * time.Minute

// endingSoonWindow is the remaining time below which an active session
// is reported as ending soon.
const endingSoonWindow = time.Minute

// Status describes a session's phase with a display label.
type Status struct {
	Phase Phase
	Label string
}

// Describe derives the session's phase and countdown label at the given
// instant.
func Describe(s *models.Session, now time.Time) Status {
	start := s.EventTime
	end := start.Add(time.Duration(s.DurationMinutes) * time.Minute)

	if now.Before(start) {
		mins := int(start.Sub(now).Round(time.Minute) / time.Minute)
		return Status{
			Phase: PhaseScheduled,
			Label: fmt.Sprintf("Starts in %dm", mins),
		}
	}

	if !now.Before(end) {
		return Status{Phase: PhaseExpired, Label: "Ended"}
	}

	remaining := end.Sub(now)
	if remaining < endingSoonWindow {
		return Status{Phase: PhaseEndingSoon, Label: "Ending soon"}
	}

	mins := int(remaining.Round(time.Minute) / time.Minute)
	hours := mins / 60
	mins = mins % 60
	if hours > 0 {
		return Status{
			Phase: PhaseActive,
			Label: fmt.Sprintf("%dh %dm left", hours, mins),
		}
	}
	return Status{
		Phase: PhaseActive,
		Label: fmt.Sprintf("%dm left", mins),
	}
}

// ShouldHide reports whether the client should drop the session from
// live views even if the server still reports it active: closed
// sessions, expired sessions, and borrow sessions past their grace
// window with no lender joined.
func ShouldHide(s *models.Session, now time.Time) bool {
	if s.Status == models.SessionStatusClosed {
		return true
	}

	end := s.EventTime.Add(time.Duration(s.DurationMinutes) * time.Minute)
	if !now.Before(end) {
		return true
	}

	if s.Type == models.SessionTypeBorrow &&
		now.After(s.EventTime.Add(BorrowGrace)) &&
		len(s.Participants) <= 1 {
		return true
	}

	return false
}
