package visibility

import (
	"github.com/vibemap/vibemap/internal/models"
)

// TagSet is the set of tag ids a viewer belongs to.
type TagSet map[string]struct{}

// MemberTagSet builds the viewer's tag-membership set. Only membership
// counts: owning a tag without being in its member list grants nothing.
func MemberTagSet(tags []*models.Tag, viewerID string) TagSet {
	set := make(TagSet)
	for _, tag := range tags {
		if tag.HasMember(viewerID) {
			set[tag.ID] = struct{}{}
		}
	}
	return set
}

// Visible reports whether the viewer may see the session. Rules apply
// in order: public sessions are always visible, creators and participants
// always see their own sessions, and private sessions are visible when
// one of their visibility tags intersects the viewer's membership set.
func Visible(s *models.Session, viewerID string, viewerTags TagSet) bool {
	if s.Privacy != models.PrivacyPrivate {
		return true
	}
	if s.CreatorID == viewerID {
		return true
	}
	if s.HasParticipant(viewerID) {
		return true
	}
	for _, tagID := range s.VisibleToTagIDs {
		if _, ok := viewerTags[tagID]; ok {
			return true
		}
	}
	return false
}
