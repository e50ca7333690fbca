package coordinator

import (
	"context"

	"github.com/vibemap/vibemap/internal/metrics"
	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/realtime"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/session"
)

// applySessionEvent merges one change-feed event into the local set.
// The feed is at-least-once: redeliveries and races with the initial
// fetch are resolved here, never surfaced.
func (s *service) applySessionEvent(ctx context.Context, ev *realtime.Event) {
	switch ev.Op {
	case realtime.OpInsert:
		s.applySessionInsert(ctx, ev)
	case realtime.OpUpdate:
		s.applySessionUpdate(ctx, ev)
	case realtime.OpDelete:
		s.applySessionDelete(ev)
	default:
		s.log.Warn("unknown feed operation", "operation", ev.Op)
	}
}

func (s *service) applySessionInsert(ctx context.Context, ev *realtime.Event) {
	sess, err := session.DecodeRow(ev.New)
	if err != nil {
		s.log.Error("failed to decode session insert", "error", err)
		return
	}

	sess.CreatorName = s.resolveCreatorName(ctx, sess.CreatorID)

	if !s.state.PrependSession(sess) {
		metrics.DuplicatesDropped.WithLabelValues("sessions").Inc()
		return
	}
	metrics.EventsApplied.WithLabelValues("sessions", string(realtime.OpInsert)).Inc()
}

func (s *service) applySessionUpdate(ctx context.Context, ev *realtime.Event) {
	sess, err := session.DecodeRow(ev.New)
	if err != nil {
		s.log.Error("failed to decode session update", "error", err)
		return
	}

	if sess.Status == models.SessionStatusClosed {
		s.dropSession(sess.ID, "This session has ended")
		metrics.EventsApplied.WithLabelValues("sessions", string(realtime.OpUpdate)).Inc()
		return
	}

	// Keep the already-resolved name when the creator is unchanged; a
	// transfer forces a fresh lookup.
	if existing, ok := s.state.Session(sess.ID); ok && existing.CreatorID == sess.CreatorID {
		sess.CreatorName = existing.CreatorName
	} else {
		sess.CreatorName = s.resolveCreatorName(ctx, sess.CreatorID)
	}

	if !s.state.UpdateSession(sess) {
		// An update for a session we never saw: the insert was missed,
		// treat it as one.
		s.state.PrependSession(sess)
	}
	metrics.EventsApplied.WithLabelValues("sessions", string(realtime.OpUpdate)).Inc()
}

func (s *service) applySessionDelete(ev *realtime.Event) {
	sess, err := session.DecodeRow(ev.Old)
	if err != nil {
		s.log.Error("failed to decode session delete", "error", err)
		return
	}

	s.dropSession(sess.ID, "This session was removed")
	metrics.EventsApplied.WithLabelValues("sessions", string(realtime.OpDelete)).Inc()
}

// dropSession removes a session from the local set and force-closes its
// chat if it is the one open, leaving a system notice behind.
func (s *service) dropSession(sessionID, notice string) {
	s.state.RemoveSession(sessionID)

	s.chatMu.Lock()
	defer s.chatMu.Unlock()
	if s.chat != nil && s.chat.sessionID == sessionID {
		s.chat.appendSystem(notice, s.clock.Now())
		s.chat.sub.Unsubscribe()
		s.chat.markClosed()
	}
}

// resolveCreatorName looks up a display name, degrading to a
// placeholder rather than blocking the merge.
func (s *service) resolveCreatorName(ctx context.Context, creatorID string) string {
	p, err := s.profileRepo.GetProfile(ctx, &profile.GetProfileInput{UserID: creatorID})
	if err != nil {
		metrics.EnrichmentFailures.WithLabelValues("creator").Inc()
		s.log.Warn("creator lookup failed", "creator_id", creatorID, "error", err)
		return "Unknown"
	}
	return p.Username
}
