package memory

import (
	"sync"

	"knowledge-quiz/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.SessionMachine
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.SessionMachine),
	}
}

func (s *SessionStore) GetOrCreate(playerID string, create func() *app.SessionMachine) *app.SessionMachine {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.sessions[playerID]; ok {
		return m
	}
	m := create()
	s.sessions[playerID] = m
	return m
}

func (s *SessionStore) Get(playerID string) (*app.SessionMachine, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.sessions[playerID]
	return m, ok
}

func (s *SessionStore) Delete(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, playerID)
}
