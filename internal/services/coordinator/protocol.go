package coordinator

import (
	"context"
	"fmt"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/repositories/message"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/session"
	"github.com/vibemap/vibemap/internal/repositories/tag"
)

// CreateSession persists a draft and, for a private session, fans out
// invite notifications to the members of its visibility tags.
func (s *service) CreateSession(ctx context.Context, input *CreateSessionInput) (*CreateSessionOutput, error) {
	if input == nil || input.Session == nil {
		return nil, fmt.Errorf("input and session cannot be nil")
	}

	draft := input.Session
	draft.CreatorID = s.userID

	out, err := s.sessionRepo.CreateSession(ctx, &session.CreateSessionInput{Session: draft})
	if err != nil {
		return nil, err
	}

	created := out.Session
	s.state.PrependSession(created)

	invites := 0
	if created.Privacy == models.PrivacyPrivate {
		invites = s.fanOutInvites(ctx, created)
	}

	return &CreateSessionOutput{Session: created, InvitesSent: invites}, nil
}

// fanOutInvites notifies every member of the session's visibility tags.
// A failed tag lookup or notification skips that target and keeps
// going.
func (s *service) fanOutInvites(ctx context.Context, sess *models.Session) int {
	sent := 0
	notified := map[string]struct{}{s.userID: {}}

	for _, tagID := range sess.VisibleToTagIDs {
		t, err := s.tagRepo.GetTag(ctx, &tag.GetTagInput{TagID: tagID})
		if err != nil {
			s.log.Warn("invite fan-out skipped tag", "tag_id", tagID, "error", err)
			continue
		}

		for _, memberID := range t.MemberIDs {
			if _, done := notified[memberID]; done {
				continue
			}
			notified[memberID] = struct{}{}

			_, err := s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
				Type:        models.NotificationSessionInvite,
				RecipientID: memberID,
				ActorID:     s.userID,
				SessionID:   sess.ID,
			})
			if err != nil {
				s.log.Warn("invite notification failed", "recipient_id", memberID, "error", err)
				continue
			}
			sent++
		}
	}

	return sent
}

// JoinSession runs the join protocol. A second join for the same
// session while one is still in flight is rejected locally; a join the
// server reports as a repeat is a success. A user occupies at most one
// active session, so a join while settled elsewhere is rejected before
// it reaches the server.
func (s *service) JoinSession(ctx context.Context, input *JoinSessionInput) (*JoinSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, fmt.Errorf("input and session ID cannot be empty")
	}

	for _, sess := range s.state.Sessions() {
		if sess.ID == input.SessionID || sess.Status == models.SessionStatusClosed {
			continue
		}
		if sess.HasParticipant(s.userID) {
			return nil, ErrAlreadyInSession
		}
	}

	s.mu.Lock()
	if _, busy := s.joinsInFlight[input.SessionID]; busy {
		s.mu.Unlock()
		return nil, ErrJoinInFlight
	}
	s.joinsInFlight[input.SessionID] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.joinsInFlight, input.SessionID)
		s.mu.Unlock()
	}()

	out, err := s.sessionRepo.JoinSession(ctx, &session.JoinSessionInput{
		SessionID: input.SessionID,
		UserID:    s.userID,
		Role:      input.Role,
	})
	if err != nil {
		return nil, err
	}

	merged := s.mergeMembership(ctx, input.SessionID, out.Participants, out.ParticipantRoles)

	if !out.AlreadyParticipant && merged != nil && merged.CreatorID != s.userID {
		_, err := s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
			Type:        models.NotificationSessionJoin,
			RecipientID: merged.CreatorID,
			ActorID:     s.userID,
			SessionID:   merged.ID,
		})
		if err != nil {
			s.log.Warn("join notification failed", "session_id", merged.ID, "error", err)
		}
	}

	return &JoinSessionOutput{
		Session:            merged,
		AlreadyParticipant: out.AlreadyParticipant,
	}, nil
}

// mergeMembership replaces the stored session's membership with the
// server's authoritative lists. The lists are swapped wholesale, never
// merged with local state.
func (s *service) mergeMembership(ctx context.Context, sessionID string, participants []string, roles map[string]models.Role) *models.Session {
	existing, ok := s.state.Session(sessionID)
	if !ok {
		fetched, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{SessionID: sessionID})
		if err != nil {
			s.log.Warn("joined session not fetchable", "session_id", sessionID, "error", err)
			return nil
		}
		s.state.PrependSession(fetched)
		return fetched
	}

	updated := *existing
	updated.Participants = participants
	updated.ParticipantRoles = roles
	s.state.UpdateSession(&updated)
	return &updated
}

// LeaveSession runs the leave protocol. Whether the session survives is
// decided by the server flag alone.
func (s *service) LeaveSession(ctx context.Context, input *LeaveSessionInput) (*LeaveSessionOutput, error) {
	if input == nil || input.SessionID == "" {
		return nil, fmt.Errorf("input and session ID cannot be empty")
	}

	stored, _ := s.state.Session(input.SessionID)

	out, err := s.sessionRepo.LeaveSession(ctx, &session.LeaveSessionInput{
		SessionID: input.SessionID,
		UserID:    s.userID,
	})
	if err != nil {
		return nil, err
	}

	if out.SessionClosed {
		s.dropSession(input.SessionID, "This session has ended")
	} else if fetched, err := s.sessionRepo.GetSession(ctx, &session.GetSessionInput{SessionID: input.SessionID}); err == nil {
		s.state.UpdateSession(fetched)
	}

	result := &LeaveSessionOutput{SessionClosed: out.SessionClosed}

	// Leaving a skill-share session is the moment to thank the host.
	if stored != nil && stored.Type == models.SessionTypeCookie && stored.CreatorID != s.userID {
		result.VouchOpportunity = &VouchOpportunity{
			HostID:   stored.CreatorID,
			HostName: stored.CreatorName,
			Skill:    stored.SkillTag,
		}
	}

	return result, nil
}

// TransferOwnership hands the session to another participant. The
// announcement message and the notification are attempted
// independently; either failing does not undo the transfer.
func (s *service) TransferOwnership(ctx context.Context, input *TransferOwnershipInput) (*TransferOwnershipOutput, error) {
	if input == nil || input.SessionID == "" || input.NewOwner == "" {
		return nil, fmt.Errorf("input, session ID and new owner cannot be empty")
	}

	stored, ok := s.state.Session(input.SessionID)
	if !ok {
		return nil, ErrSessionUnknown
	}
	if stored.CreatorID != s.userID {
		return nil, ErrNotCreator
	}
	if !stored.HasParticipant(input.NewOwner) {
		return nil, ErrNotInSession
	}

	newOwner := input.NewOwner
	updated, err := s.sessionRepo.UpdateSession(ctx, &session.UpdateSessionInput{
		SessionID: input.SessionID,
		CreatorID: &newOwner,
	})
	if err != nil {
		return nil, err
	}
	s.state.UpdateSession(updated.Session)

	result := &TransferOwnershipOutput{Session: updated.Session}

	_, err = s.messageRepo.SendMessage(ctx, &message.SendMessageInput{
		SessionID: input.SessionID,
		SenderID:  s.userID,
		Text:      fmt.Sprintf("%s is now hosting this session", updated.Session.CreatorName),
	})
	if err != nil {
		s.log.Warn("transfer announcement failed", "session_id", input.SessionID, "error", err)
	} else {
		result.MessageSent = true
	}

	_, err = s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
		Type:        models.NotificationOwnershipTransfer,
		RecipientID: input.NewOwner,
		ActorID:     s.userID,
		SessionID:   input.SessionID,
	})
	if err != nil {
		s.log.Warn("transfer notification failed", "session_id", input.SessionID, "error", err)
	} else {
		result.NotificationSent = true
	}

	return result, nil
}

// ExtendSession adds minutes to a session the user hosts.
func (s *service) ExtendSession(ctx context.Context, input *ExtendSessionInput) (*models.Session, error) {
	if input == nil || input.SessionID == "" || input.Minutes <= 0 {
		return nil, fmt.Errorf("input, session ID and a positive extension are required")
	}

	stored, ok := s.state.Session(input.SessionID)
	if !ok {
		return nil, ErrSessionUnknown
	}
	if stored.CreatorID != s.userID {
		return nil, ErrNotCreator
	}

	minutes := stored.DurationMinutes + input.Minutes
	updated, err := s.sessionRepo.UpdateSession(ctx, &session.UpdateSessionInput{
		SessionID:       input.SessionID,
		DurationMinutes: &minutes,
	})
	if err != nil {
		return nil, err
	}

	s.state.UpdateSession(updated.Session)
	return updated.Session, nil
}

// CloseSession ends a session the user hosts.
func (s *service) CloseSession(ctx context.Context, input *CloseSessionInput) error {
	if input == nil || input.SessionID == "" {
		return fmt.Errorf("input and session ID cannot be empty")
	}

	stored, ok := s.state.Session(input.SessionID)
	if !ok {
		return ErrSessionUnknown
	}
	if stored.CreatorID != s.userID {
		return ErrNotCreator
	}

	closed := models.SessionStatusClosed
	_, err := s.sessionRepo.UpdateSession(ctx, &session.UpdateSessionInput{
		SessionID: input.SessionID,
		Status:    &closed,
	})
	if err != nil {
		return err
	}

	s.dropSession(input.SessionID, "This session has ended")
	return nil
}
