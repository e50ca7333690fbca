package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/vibemap/vibemap/internal/models"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func session(typ models.SessionType, start time.Time, durationMinutes int, participants ...string) *models.Session {
	return &models.Session{
		ID:              "s1",
		Type:            typ,
		Status:          models.SessionStatusActive,
		EventTime:       start,
		DurationMinutes: durationMinutes,
		Participants:    participants,
	}
}

func TestDescribe_Scheduled(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(25*time.Minute), 60, "creator")

	status := Describe(s, testNow)

	assert.Equal(t, PhaseScheduled, status.Phase)
	assert.Equal(t, "Starts in 25m", status.Label)
}

func TestDescribe_Active(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(-10*time.Minute), 60, "creator")

	status := Describe(s, testNow)

	assert.Equal(t, PhaseActive, status.Phase)
	assert.Equal(t, "50m left", status.Label)
}

func TestDescribe_ActiveWithHours(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(-10*time.Minute), 180, "creator")

	status := Describe(s, testNow)

	assert.Equal(t, PhaseActive, status.Phase)
	assert.Equal(t, "2h 50m left", status.Label)
}

func TestDescribe_EndingSoon(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(-60*time.Minute), 60, "creator")

	status := Describe(s, testNow.Add(-30*time.Second))

	assert.Equal(t, PhaseEndingSoon, status.Phase)
	assert.Equal(t, "Ending soon", status.Label)
}

func TestDescribe_Expired(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(-2*time.Hour), 60, "creator")

	status := Describe(s, testNow)

	assert.Equal(t, PhaseExpired, status.Phase)
}

func TestDescribe_ExactStartIsActive(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow, 60, "creator")

	status := Describe(s, testNow)

	assert.Equal(t, PhaseActive, status.Phase)
}

func TestShouldHide_ExpiredButStillActiveStatus(t *testing.T) {
	// The server has not closed the session yet; hide it anyway.
	s := session(models.SessionTypeVibe, testNow.Add(-2*time.Hour), 60, "creator")
	assert.Equal(t, models.SessionStatusActive, s.Status)

	assert.True(t, ShouldHide(s, testNow))
}

func TestShouldHide_ClosedStatus(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow, 60, "creator")
	s.Status = models.SessionStatusClosed

	assert.True(t, ShouldHide(s, testNow))
}

func TestShouldHide_BorrowGraceWindow(t *testing.T) {
	// Borrow session created at t0 with duration 180 and only the
	// creator joined: hidden at t0+35m despite being mid-duration.
	t0 := testNow.Add(-35 * time.Minute)
	s := session(models.SessionTypeBorrow, t0, 180, "creator")

	assert.True(t, ShouldHide(s, testNow))
}

func TestShouldHide_BorrowWithLenderStaysVisible(t *testing.T) {
	t0 := testNow.Add(-35 * time.Minute)
	s := session(models.SessionTypeBorrow, t0, 180, "creator", "lender")

	assert.False(t, ShouldHide(s, testNow))
}

func TestShouldHide_BorrowInsideGraceStaysVisible(t *testing.T) {
	t0 := testNow.Add(-20 * time.Minute)
	s := session(models.SessionTypeBorrow, t0, 180, "creator")

	assert.False(t, ShouldHide(s, testNow))
}

func TestShouldHide_ActiveVibeStaysVisible(t *testing.T) {
	s := session(models.SessionTypeVibe, testNow.Add(-10*time.Minute), 60, "creator")

	assert.False(t, ShouldHide(s, testNow))
}
