package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"knowledge-quiz/internal/clock"
	"knowledge-quiz/internal/domain"
)

// SessionRepository abstracts where live session machines are kept (in-memory, Redis-aware, etc).
type SessionRepository interface {
	GetOrCreate(playerID string, create func() *SessionMachine) *SessionMachine
	Get(playerID string) (*SessionMachine, bool)
	Delete(playerID string)
}

// TopicRepository loads question bank content (from cache/backing store).
type TopicRepository interface {
	GetTopic(ctx context.Context, topicID string) (domain.Topic, error)
	ListTopics(ctx context.Context) ([]domain.TopicSummary, error)
}

// Options tune a QuizService. Zero values fall back to defaults.
type Options struct {
	Settings  Settings
	Clock     clock.Clock
	Logger    *zap.Logger
	Publisher Notifier
}

// QuizService wires players to their session machines and exposes the shared
// leaderboard and theme preference.
type QuizService struct {
	sessions  SessionRepository
	topics    TopicRepository
	board     *Leaderboard
	theme     *ThemePreference
	clock     clock.Clock
	settings  Settings
	logger    *zap.Logger
	publisher Notifier

	mu    sync.Mutex
	conns map[string]*connections
}

func NewQuizService(store SessionRepository, topics TopicRepository, records RecordStore, opts Options) *QuizService {
	settings := opts.Settings.withDefaults()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	c := opts.Clock
	if c == nil {
		c = clock.System()
	}
	return &QuizService{
		sessions:  store,
		topics:    topics,
		board:     NewLeaderboard(records, settings.Capacity, logger.Named("leaderboard")),
		theme:     NewThemePreference(records, logger.Named("theme")),
		clock:     c,
		settings:  settings,
		logger:    logger,
		publisher: opts.Publisher,
		conns:     make(map[string]*connections),
	}
}

// Connect attaches a connection to the player's machine, creating it on first
// use. Every attached connection receives the machine's events, as does the
// service-wide publisher. The returned release detaches this connection; the
// machine is closed when its last connection is released.
func (s *QuizService) Connect(playerID string, notifier Notifier) (*SessionMachine, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.sessions.GetOrCreate(playerID, func() *SessionMachine {
		return NewSessionMachine(playerID, s.topics, s.board, s.clock, s.settings, s.logger.Named("session"))
	})
	conns, ok := s.conns[playerID]
	if !ok {
		conns = newConnections()
		s.conns[playerID] = conns
		m.SetNotifier(MultiNotifier{conns, s.publisher})
	}
	id := conns.add(notifier)

	var once sync.Once
	return m, func() {
		once.Do(func() { s.release(playerID, conns, id) })
	}
}

// Machine looks up a connected player's machine.
func (s *QuizService) Machine(playerID string) (*SessionMachine, error) {
	m, ok := s.sessions.Get(playerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return m, nil
}

// Disconnect closes and forgets the player's machine regardless of how many
// connections are attached. Their release funcs become no-ops.
func (s *QuizService) Disconnect(playerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, playerID)
	s.closeLocked(playerID)
}

func (s *QuizService) release(playerID string, conns *connections, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conns[playerID] != conns {
		return
	}
	if conns.remove(id) > 0 {
		return
	}
	delete(s.conns, playerID)
	s.closeLocked(playerID)
}

func (s *QuizService) closeLocked(playerID string) {
	m, ok := s.sessions.Get(playerID)
	if !ok {
		return
	}
	m.Close()
	s.sessions.Delete(playerID)
}

// Topics lists the selectable topics.
func (s *QuizService) Topics(ctx context.Context) ([]domain.TopicSummary, error) {
	return s.topics.ListTopics(ctx)
}

func (s *QuizService) Leaderboard() *Leaderboard { return s.board }

func (s *QuizService) Theme() *ThemePreference { return s.theme }

// PreviewSize is the default number of entries in the ranked preview.
func (s *QuizService) PreviewSize() int { return s.settings.PreviewSize }

// connections fans a machine's events out to every attached connection.
type connections struct {
	mu   sync.RWMutex
	next uint64
	subs map[uint64]Notifier
}

func newConnections() *connections {
	return &connections{subs: make(map[uint64]Notifier)}
}

func (c *connections) add(n Notifier) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.next++
	c.subs[c.next] = n
	return c.next
}

// remove detaches id and reports how many connections remain.
func (c *connections) remove(id uint64) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, id)
	return len(c.subs)
}

func (c *connections) Notify(ev Event) {
	c.mu.RLock()
	subs := make([]Notifier, 0, len(c.subs))
	for _, n := range c.subs {
		if n != nil {
			subs = append(subs, n)
		}
	}
	c.mu.RUnlock()
	for _, n := range subs {
		n.Notify(ev)
	}
}
