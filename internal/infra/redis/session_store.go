package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"knowledge-quiz/internal/app"
)

// SessionStore is a Redis-aware implementation of app.SessionRepository.
// Machines own timers and connections, so they stay in a local map; Redis only
// carries a per-player liveness marker that other instances and operators can see.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.SessionMachine
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(playerID), "1", s.ttl).Err()
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
	if _, ok := s.sessions[playerID]; !ok {
		return
	}
	delete(s.sessions, playerID)
	_ = s.client.Del(context.Background(), s.key(playerID)).Err()
}

func (s *SessionStore) key(playerID string) string {
	return "quiz:player:" + playerID
}
