// Package social covers the friendship graph and its trimmings: friend
// requests, friend tags, user search, and skill vouches.
package social

import (
	"context"
	"errors"
	"log/slog"

	"github.com/vibemap/vibemap/internal/models"
	"github.com/vibemap/vibemap/internal/observability"
	"github.com/vibemap/vibemap/internal/repositories/friend"
	"github.com/vibemap/vibemap/internal/repositories/notification"
	"github.com/vibemap/vibemap/internal/repositories/profile"
	"github.com/vibemap/vibemap/internal/repositories/tag"
	"github.com/vibemap/vibemap/internal/repositories/vouch"
)

// ErrNotTagOwner is returned when editing a tag the user did not create
var ErrNotTagOwner = errors.New("only the tag creator may edit it")

// Config holds dependencies for the social service
type Config struct {
	// UserID is the local user
	UserID string

	FriendRepo       friend.Repository
	ProfileRepo      profile.Repository
	TagRepo          tag.Repository
	NotificationRepo notification.Repository
	VouchRepo        vouch.Repository
}

type service struct {
	userID string

	friendRepo       friend.Repository
	profileRepo      profile.Repository
	tagRepo          tag.Repository
	notificationRepo notification.Repository
	vouchRepo        vouch.Repository
	log              *slog.Logger
}

// New creates a new social service
func New(cfg *Config) (*service, error) {
	if cfg == nil {
		return nil, errors.New("config cannot be nil")
	}
	if cfg.UserID == "" {
		return nil, errors.New("user ID cannot be empty")
	}
	if cfg.FriendRepo == nil {
		return nil, errors.New("friend repository cannot be nil")
	}
	if cfg.ProfileRepo == nil {
		return nil, errors.New("profile repository cannot be nil")
	}
	if cfg.TagRepo == nil {
		return nil, errors.New("tag repository cannot be nil")
	}
	if cfg.NotificationRepo == nil {
		return nil, errors.New("notification repository cannot be nil")
	}
	if cfg.VouchRepo == nil {
		return nil, errors.New("vouch repository cannot be nil")
	}

	return &service{
		userID:           cfg.UserID,
		friendRepo:       cfg.FriendRepo,
		profileRepo:      cfg.ProfileRepo,
		tagRepo:          cfg.TagRepo,
		notificationRepo: cfg.NotificationRepo,
		vouchRepo:        cfg.VouchRepo,
		log:              observability.WithFields("component", "social", "user_id", cfg.UserID),
	}, nil
}

// SendFriendRequest creates a request and notifies the recipient. The
// notification failing does not undo the request.
func (s *service) SendFriendRequest(ctx context.Context, toUserID string) (*models.FriendRequest, error) {
	req, err := s.friendRepo.SendFriendRequest(ctx, &friend.SendFriendRequestInput{
		FromUserID: s.userID,
		ToUserID:   toUserID,
	})
	if err != nil {
		return nil, err
	}

	_, err = s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
		Type:        models.NotificationFriendRequestReceived,
		RecipientID: toUserID,
		ActorID:     s.userID,
	})
	if err != nil {
		s.log.Warn("friend request notification failed", "to_user_id", toUserID, "error", err)
	}

	return req, nil
}

// AcceptFriendRequest accepts a request, notifies the requester, and
// returns the freshly refetched friends list. Friend state is always
// replaced from a fetch, never patched locally.
func (s *service) AcceptFriendRequest(ctx context.Context, requestID string) ([]*models.Friend, error) {
	reqs, err := s.friendRepo.FetchFriendRequests(ctx, &friend.FetchFriendRequestsInput{UserID: s.userID})
	if err != nil {
		return nil, err
	}

	var fromUserID string
	for _, req := range reqs.Requests {
		if req.ID == requestID {
			fromUserID = req.FromUserID
			break
		}
	}

	err = s.friendRepo.AcceptFriendRequest(ctx, &friend.AcceptFriendRequestInput{
		RequestID: requestID,
		UserID:    s.userID,
	})
	if err != nil {
		return nil, err
	}

	if fromUserID != "" {
		_, err = s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
			Type:        models.NotificationFriendRequestAccepted,
			RecipientID: fromUserID,
			ActorID:     s.userID,
		})
		if err != nil {
			s.log.Warn("acceptance notification failed", "from_user_id", fromUserID, "error", err)
		}
	}

	out, err := s.friendRepo.FetchFriends(ctx, &friend.FetchFriendsInput{UserID: s.userID})
	if err != nil {
		return nil, err
	}
	return out.Friends, nil
}

// RejectFriendRequest discards a request silently.
func (s *service) RejectFriendRequest(ctx context.Context, requestID string) error {
	return s.friendRepo.RejectFriendRequest(ctx, &friend.RejectFriendRequestInput{
		RequestID: requestID,
		UserID:    s.userID,
	})
}

// RemoveFriend removes the friendship and scrubs the removed friend
// from every tag the user owns.
func (s *service) RemoveFriend(ctx context.Context, friendID string) error {
	err := s.friendRepo.RemoveFriend(ctx, &friend.RemoveFriendInput{
		UserID:   s.userID,
		FriendID: friendID,
	})
	if err != nil {
		return err
	}

	tags, err := s.tagRepo.FetchTagsForUser(ctx, &tag.FetchTagsForUserInput{UserID: s.userID})
	if err != nil {
		s.log.Warn("tag scrub skipped", "friend_id", friendID, "error", err)
		return nil
	}

	for _, t := range tags.Tags {
		if t.CreatorID != s.userID || !t.HasMember(friendID) {
			continue
		}

		remaining := make([]string, 0, len(t.MemberIDs))
		for _, id := range t.MemberIDs {
			if id != friendID {
				remaining = append(remaining, id)
			}
		}

		_, err := s.tagRepo.SetTagMembers(ctx, &tag.SetTagMembersInput{
			TagID:     t.ID,
			MemberIDs: remaining,
		})
		if err != nil {
			s.log.Warn("tag scrub failed", "tag_id", t.ID, "error", err)
		}
	}

	return nil
}

// SaveTag creates or edits one of the user's tags.
func (s *service) SaveTag(ctx context.Context, t *models.Tag) (*models.Tag, error) {
	if t == nil {
		return nil, errors.New("tag cannot be nil")
	}
	if t.ID != "" && t.CreatorID != s.userID {
		return nil, ErrNotTagOwner
	}

	t.CreatorID = s.userID
	out, err := s.tagRepo.SaveTag(ctx, &tag.SaveTagInput{Tag: t})
	if err != nil {
		return nil, err
	}
	return out.Tag, nil
}

// DeleteTag removes one of the user's tags.
func (s *service) DeleteTag(ctx context.Context, tagID string) error {
	t, err := s.tagRepo.GetTag(ctx, &tag.GetTagInput{TagID: tagID})
	if err != nil {
		return err
	}
	if t.CreatorID != s.userID {
		return ErrNotTagOwner
	}
	return s.tagRepo.DeleteTag(ctx, &tag.DeleteTagInput{TagID: tagID})
}

// AssignFriendTags makes tagIDs the complete set of the user's tags the
// friend belongs to. Tags the friend is newly added to trigger a
// notification; removals are silent.
func (s *service) AssignFriendTags(ctx context.Context, friendID string, tagIDs []string) error {
	wanted := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		wanted[id] = struct{}{}
	}

	tags, err := s.tagRepo.FetchTagsForUser(ctx, &tag.FetchTagsForUserInput{UserID: s.userID})
	if err != nil {
		return err
	}

	for _, t := range tags.Tags {
		if t.CreatorID != s.userID {
			continue
		}

		_, keep := wanted[t.ID]
		has := t.HasMember(friendID)
		if keep == has {
			continue
		}

		members := make([]string, 0, len(t.MemberIDs)+1)
		for _, id := range t.MemberIDs {
			if id != friendID {
				members = append(members, id)
			}
		}
		if keep {
			members = append(members, friendID)
		}

		if _, err := s.tagRepo.SetTagMembers(ctx, &tag.SetTagMembersInput{
			TagID:     t.ID,
			MemberIDs: members,
		}); err != nil {
			return err
		}

		if keep {
			_, err := s.notificationRepo.CreateNotification(ctx, &notification.CreateNotificationInput{
				Type:        models.NotificationTagAdd,
				RecipientID: friendID,
				ActorID:     s.userID,
				TagID:       t.ID,
			})
			if err != nil {
				s.log.Warn("tag-add notification failed", "tag_id", t.ID, "error", err)
			}
		}
	}

	return nil
}

// SearchUsers finds users by username prefix, never including the
// searcher.
func (s *service) SearchUsers(ctx context.Context, query string) ([]*models.Profile, error) {
	out, err := s.profileRepo.SearchProfiles(ctx, &profile.SearchProfilesInput{
		Query:      query,
		SearcherID: s.userID,
	})
	if err != nil {
		return nil, err
	}
	return out.Profiles, nil
}

// VouchForUser records a skill endorsement and applies its points to
// the receiver's scores. Points follow the decaying repeat schedule.
func (s *service) VouchForUser(ctx context.Context, receiverID, skill string) (*models.Vouch, error) {
	out, err := s.vouchRepo.RecordVouch(ctx, &vouch.RecordVouchInput{
		VoucherID:  s.userID,
		ReceiverID: receiverID,
		Skill:      skill,
	})
	if err != nil {
		return nil, err
	}

	if out.Vouch.Points > 0 {
		_, err = s.profileRepo.ApplyVouch(ctx, &profile.ApplyVouchInput{
			UserID: receiverID,
			Skill:  skill,
			Points: out.Vouch.Points,
		})
		if err != nil {
			s.log.Warn("score apply failed", "receiver_id", receiverID, "error", err)
		}
	}

	return out.Vouch, nil
}

// VouchHistory returns vouches received by a user, newest first.
func (s *service) VouchHistory(ctx context.Context, userID string) ([]*models.Vouch, error) {
	out, err := s.vouchRepo.FetchVouchHistory(ctx, &vouch.FetchVouchHistoryInput{ReceiverID: userID})
	if err != nil {
		return nil, err
	}
	return out.Vouches, nil
}
