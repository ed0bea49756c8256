package memory

import (
	"errors"
	"sort"
	"sync"

	"twinchat/twinchat/types"
)

var ErrDuplicateMessage = errors.New("message id already present in session")

// SessionStore keeps each session's message list in process memory, keyed
// by an opaque session key. Reads return copies so callers never see a list
// that is being modified.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string][]types.Message
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string][]types.Message),
	}
}

// GetMessages returns the session's messages in append order, empty if unknown.
func (s *SessionStore) GetMessages(key string) []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs := s.sessions[key]
	out := make([]types.Message, len(msgs))
	copy(out, msgs)
	return out
}

// ReplaceMessages overwrites the session with msgs. Later duplicates of an id are dropped.
func (s *SessionStore) ReplaceMessages(key string, msgs []types.Message) {
	out := make([]types.Message, 0, len(msgs))
	seen := make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[key] = out
}

// AppendMessage adds msg to the end of the session, creating it if needed.
func (s *SessionStore) AppendMessage(key string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.sessions[key] {
		if m.ID == msg.ID {
			return ErrDuplicateMessage
		}
	}
	s.sessions[key] = append(s.sessions[key], msg)
	return nil
}

// SetPending flips the pending marker of one stored message. It reports
// whether the message was found.
func (s *SessionStore) SetPending(key, msgID string, pending bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := s.sessions[key]
	for i := range msgs {
		if msgs[i].ID == msgID {
			msgs[i].Pending = pending
			return true
		}
	}
	return false
}

// Len is the number of messages in one session.
func (s *SessionStore) Len(key string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions[key])
}

// Evict drops a session entirely.
func (s *SessionStore) Evict(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}

// Sessions lists the keys that currently hold messages, sorted.
func (s *SessionStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
