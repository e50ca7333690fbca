package coordinator

import (
	"sync"

	"github.com/vibemap/vibemap/internal/models"
)

// store holds the client's replicated state. Readers get copies of the
// slices; the session pointers themselves are replaced wholesale on
// update, never mutated in place.
type store struct {
	mu sync.RWMutex

	sessions []*models.Session
	tags     []*models.Tag
	friends  []*models.Friend
	requests []*models.FriendRequest
}

func newStore() *store {
	return &store{
		sessions: []*models.Session{},
		tags:     []*models.Tag{},
		friends:  []*models.Friend{},
		requests: []*models.FriendRequest{},
	}
}

func (s *store) Sessions() []*models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

func (s *store) Session(id string) (*models.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.ID == id {
			return sess, true
		}
	}
	return nil, false
}

func (s *store) ReplaceSessions(sessions []*models.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = sessions
}

// PrependSession inserts a session at the head unless the id is already
// present.
func (s *store) PrependSession(sess *models.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.sessions {
		if existing.ID == sess.ID {
			return false
		}
	}
	s.sessions = append([]*models.Session{sess}, s.sessions...)
	return true
}

// UpdateSession swaps the stored pointer for the same id, keeping list
// position. Unknown ids are ignored.
func (s *store) UpdateSession(sess *models.Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.sessions {
		if existing.ID == sess.ID {
			s.sessions[i] = sess
			return true
		}
	}
	return false
}

func (s *store) RemoveSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.sessions {
		if existing.ID == id {
			s.sessions = append(s.sessions[:i], s.sessions[i+1:]...)
			return true
		}
	}
	return false
}

func (s *store) Tags() []*models.Tag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Tag, len(s.tags))
	copy(out, s.tags)
	return out
}

func (s *store) ReplaceTags(tags []*models.Tag) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tags = tags
}

func (s *store) Friends() []*models.Friend {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Friend, len(s.friends))
	copy(out, s.friends)
	return out
}

func (s *store) ReplaceFriends(friends []*models.Friend) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.friends = friends
}

func (s *store) Requests() []*models.FriendRequest {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.FriendRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func (s *store) ReplaceRequests(requests []*models.FriendRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = requests
}
