package components

import (
	"sort"
	"sync"
)

// SessionKey identifies one field conversation. Keys are namespaced by
// section and subject so two concurrently resolving sections can never touch
// the same session. An array field shares a single session across all of its
// items, so the key carries no item index.
type SessionKey struct {
	Section string
	Subject string
	Field   string
}

func (k SessionKey) String() string {
	return k.Section + "/" + k.Subject + "/" + k.Field
}

// SessionStore maps session keys to conversation histories. Sessions are
// created lazily on first use and live for the duration of one run.
type SessionStore struct {
	sessions map[SessionKey]*Memory
	mtx      sync.RWMutex
}

// NewSessionStore returns an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[SessionKey]*Memory),
	}
}

// Session returns the memory for a key, creating it on first use.
func (s *SessionStore) Session(key SessionKey) *Memory {
	s.mtx.RLock()
	mem := s.sessions[key]
	s.mtx.RUnlock()
	if mem != nil {
		return mem
	}
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if mem = s.sessions[key]; mem == nil {
		mem = NewMemory(0)
		s.sessions[key] = mem
	}
	return mem
}

// History returns the history for a key, nil when the session does not exist.
func (s *SessionStore) History(key SessionKey) []Message {
	s.mtx.RLock()
	mem := s.sessions[key]
	s.mtx.RUnlock()
	if mem == nil {
		return nil
	}
	return mem.History()
}

// Keys returns the existing session keys in stable order.
func (s *SessionStore) Keys() []SessionKey {
	s.mtx.RLock()
	keys := make([]SessionKey, 0, len(s.sessions))
	for k := range s.sessions {
		keys = append(keys, k)
	}
	s.mtx.RUnlock()
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// Len returns the number of sessions.
func (s *SessionStore) Len() int {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return len(s.sessions)
}
