package app

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"knowledge-quiz/internal/clock"
	"knowledge-quiz/internal/domain"
)

// SessionMachine drives one player's quiz through topic selection, the timed
// question sequence and results. All session mutation happens under mu; timer
// and advance callbacks carry the session generation and question index they
// were scheduled for and are dropped when either no longer matches.
type SessionMachine struct {
	playerID string
	topics   TopicRepository
	board    *Leaderboard
	clock    clock.Clock
	settings Settings
	logger   *zap.Logger
	gate     *ConfirmationGate
	timer    *QuestionTimer

	nmu      sync.RWMutex
	notifier Notifier

	mu         sync.Mutex
	state      domain.State
	pending    string
	session    *Session
	generation uint64
	advance    clock.Task
	result     *Result
}

// NewSessionMachine builds a machine in topic selection.
func NewSessionMachine(playerID string, topics TopicRepository, board *Leaderboard, c clock.Clock, settings Settings, logger *zap.Logger) *SessionMachine {
	if c == nil {
		c = clock.System()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	settings = settings.withDefaults()
	return &SessionMachine{
		playerID: playerID,
		topics:   topics,
		board:    board,
		clock:    c,
		settings: settings,
		logger:   logger.With(zap.String("player", playerID)),
		gate:     NewConfirmationGate(),
		timer:    NewQuestionTimer(c, settings.Tick, settings.WarningAt),
		state:    domain.StateTopicSelection,
	}
}

// SetNotifier replaces the event sink. nil silences the machine.
func (m *SessionMachine) SetNotifier(n Notifier) {
	m.nmu.Lock()
	m.notifier = n
	m.nmu.Unlock()
}

// State returns the current state.
func (m *SessionMachine) State() domain.State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SelectTopic sets the pending topic. Selecting the same topic again is a no-op.
func (m *SessionMachine) SelectTopic(ctx context.Context, topicID string) error {
	if err := m.requireState("selectTopic", domain.StateTopicSelection); err != nil {
		return err
	}
	if _, err := m.topics.GetTopic(ctx, topicID); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.StateTopicSelection {
		return m.invalidLocked("selectTopic", domain.ErrInvalidState)
	}
	m.pending = topicID
	return nil
}

// StartQuiz snapshots the pending topic into a fresh session and starts the
// countdown for the first question.
func (m *SessionMachine) StartQuiz(ctx context.Context) error {
	m.mu.Lock()
	if m.state != domain.StateTopicSelection {
		err := m.invalidLocked("startQuiz", domain.ErrInvalidState)
		m.mu.Unlock()
		return err
	}
	topicID := m.pending
	if topicID == "" {
		err := m.invalidLocked("startQuiz", domain.ErrNoTopicSelected)
		m.mu.Unlock()
		return err
	}
	m.mu.Unlock()

	topic, err := m.topics.GetTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if err := topic.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	if m.state != domain.StateTopicSelection || m.pending != topicID {
		err := m.invalidLocked("startQuiz", domain.ErrInvalidState)
		m.mu.Unlock()
		return err
	}
	m.generation++
	m.session = newSession(topic, m.generation, m.clock.Now())
	m.result = nil
	m.state = domain.StateActive
	m.startQuestionLocked()
	ev := m.eventLocked(EventStarted)
	m.logger.Info("quiz started",
		zap.String("session", m.session.ID),
		zap.String("topic", topicID),
		zap.Int("questions", len(m.session.Questions)),
	)
	m.mu.Unlock()

	m.dispatch(ev)
	return nil
}

// SubmitAnswer resolves the current question with the selected option index.
// A question already resolved by an earlier answer or by the timer is rejected
// without touching the session.
func (m *SessionMachine) SubmitAnswer(selected int) (Evaluation, error) {
	m.mu.Lock()
	if selected < 0 || selected >= domain.OptionCount {
		err := m.invalidLocked("submitAnswer", domain.ErrInvalidOption)
		m.mu.Unlock()
		return Evaluation{}, err
	}
	if err := m.checkResolvableLocked("submitAnswer"); err != nil {
		m.mu.Unlock()
		return Evaluation{}, err
	}
	ev, events := m.resolveLocked(&selected)
	m.mu.Unlock()

	m.dispatch(events...)
	return ev, nil
}

// TimerExpired resolves the current question as unanswered.
func (m *SessionMachine) TimerExpired() error {
	m.mu.Lock()
	if err := m.checkResolvableLocked("timerExpired"); err != nil {
		m.mu.Unlock()
		return err
	}
	_, events := m.resolveLocked(nil)
	m.mu.Unlock()

	m.dispatch(events...)
	return nil
}

// RequestQuit opens the confirmation QuitQuiz requires.
func (m *SessionMachine) RequestQuit() (Confirmation, error) {
	if err := m.requireState("quitQuiz", domain.StateActive); err != nil {
		return Confirmation{}, err
	}
	return m.gate.Request(ActionQuit), nil
}

// CancelQuit drops a pending quit confirmation; the quiz continues.
func (m *SessionMachine) CancelQuit(confirmationID string) bool {
	return m.gate.Cancel(confirmationID)
}

// QuitQuiz abandons the running session once confirmationID has been approved.
// Nothing is written to the leaderboard.
func (m *SessionMachine) QuitQuiz(confirmationID string) error {
	m.mu.Lock()
	if m.state != domain.StateActive {
		err := m.invalidLocked("quitQuiz", domain.ErrInvalidState)
		m.mu.Unlock()
		return err
	}
	if !m.gate.Consume(confirmationID, ActionQuit) {
		err := m.invalidLocked("quitQuiz", domain.ErrConfirmationRequired)
		m.mu.Unlock()
		return err
	}
	ev := m.eventLocked(EventQuit)
	m.logger.Info("quiz abandoned", zap.String("session", ev.SessionID))
	m.discardLocked()
	m.pending = ""
	m.state = domain.StateTopicSelection
	m.mu.Unlock()

	m.dispatch(ev)
	return nil
}

// Restart leaves the results screen for a new topic selection.
func (m *SessionMachine) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.StateResults {
		return m.invalidLocked("restart", domain.ErrInvalidState)
	}
	m.discardLocked()
	m.result = nil
	m.pending = ""
	m.state = domain.StateTopicSelection
	return nil
}

// Close tears the machine down when its owner goes away. Any running session is
// dropped without a leaderboard entry.
func (m *SessionMachine) Close() {
	m.SetNotifier(nil)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.discardLocked()
	m.result = nil
	m.pending = ""
	m.state = domain.StateTopicSelection
}

// Snapshot returns a read-only copy of everything a presentation layer renders.
func (m *SessionMachine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		State:        m.state,
		PendingTopic: m.pending,
		Timer:        m.timer.Status(),
	}
	if m.result != nil {
		res := *m.result
		res.Answers = append([]domain.AnswerRecord(nil), m.result.Answers...)
		snap.Result = &res
	}
	s := m.session
	if s == nil {
		return snap
	}
	q := s.current()
	view := &QuestionView{Prompt: q.Prompt, Options: append([]string(nil), q.Options...)}
	if s.currentResolved() {
		ci := q.CorrectIndex
		view.CorrectIndex = &ci
	}
	snap.SessionID = s.ID
	snap.Topic = s.Topic
	snap.QuestionIndex = s.CurrentIndex
	snap.QuestionCount = len(s.Questions)
	snap.Question = view
	snap.Resolved = s.currentResolved()
	snap.CorrectCount = s.CorrectCount
	snap.IncorrectCount = s.IncorrectCount
	snap.Answers = s.answersCopy()
	return snap
}

// Snapshot is the render view of a machine.
type Snapshot struct {
	State          domain.State          `json:"state"`
	PendingTopic   string                `json:"pendingTopic,omitempty"`
	SessionID      string                `json:"sessionId,omitempty"`
	Topic          string                `json:"topic,omitempty"`
	QuestionIndex  int                   `json:"questionIndex"`
	QuestionCount  int                   `json:"questionCount"`
	Question       *QuestionView         `json:"question,omitempty"`
	Resolved       bool                  `json:"resolved"`
	CorrectCount   int                   `json:"correctCount"`
	IncorrectCount int                   `json:"incorrectCount"`
	Answers        []domain.AnswerRecord `json:"answers,omitempty"`
	Timer          TimerStatus           `json:"timer"`
	Result         *Result               `json:"result,omitempty"`
}

// QuestionView hides the correct index until the question is resolved.
type QuestionView struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex,omitempty"`
}

func (m *SessionMachine) requireState(op string, want domain.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != want {
		return m.invalidLocked(op, domain.ErrInvalidState)
	}
	return nil
}

func (m *SessionMachine) invalidLocked(op string, err error) error {
	return &domain.ValidationError{Op: op, State: m.state, Err: err}
}

func (m *SessionMachine) checkResolvableLocked(op string) error {
	if m.state != domain.StateActive || m.session == nil {
		return m.invalidLocked(op, domain.ErrInvalidState)
	}
	if m.session.currentResolved() {
		return m.invalidLocked(op, domain.ErrAlreadyResolved)
	}
	return nil
}

func (m *SessionMachine) isCurrentLocked(gen uint64, idx int) bool {
	return m.state == domain.StateActive &&
		m.session != nil &&
		m.session.generation == gen &&
		m.session.CurrentIndex == idx
}

func (m *SessionMachine) startQuestionLocked() {
	gen, idx := m.session.generation, m.session.CurrentIndex
	m.timer.Start(m.settings.QuestionTime,
		func(st TimerStatus) { m.onTick(gen, idx, st) },
		func() { m.onExpire(gen, idx) },
	)
}

func (m *SessionMachine) onTick(gen uint64, idx int, st TimerStatus) {
	m.mu.Lock()
	if !m.isCurrentLocked(gen, idx) {
		m.mu.Unlock()
		return
	}
	ev := m.eventLocked(EventTick)
	ev.Timer = &st
	m.mu.Unlock()

	m.dispatch(ev)
}

func (m *SessionMachine) onExpire(gen uint64, idx int) {
	m.mu.Lock()
	if !m.isCurrentLocked(gen, idx) || m.session.currentResolved() {
		m.mu.Unlock()
		return
	}
	_, events := m.resolveLocked(nil)
	m.mu.Unlock()

	m.dispatch(events...)
}

// resolveLocked evaluates the current question and schedules the advance.
func (m *SessionMachine) resolveLocked(selected *int) (Evaluation, []Event) {
	s := m.session
	m.timer.Cancel()
	result, rec := s.resolve(selected, m.clock.Now())

	gen, idx := s.generation, s.CurrentIndex
	m.cancelAdvanceLocked()
	m.advance = m.clock.AfterFunc(m.settings.AdvanceDelay, func() { m.advanceOrFinish(gen, idx) })

	ev := m.eventLocked(EventEvaluated)
	ev.SelectedIndex = rec.SelectedIndex
	evaluation := result
	ev.Evaluation = &evaluation
	m.logger.Debug("question resolved",
		zap.String("session", s.ID),
		zap.Int("index", idx),
		zap.String("outcome", string(result.Outcome)),
	)
	return result, []Event{ev}
}

// advanceOrFinish runs after the display delay of a resolved question.
func (m *SessionMachine) advanceOrFinish(gen uint64, idx int) {
	m.mu.Lock()
	if !m.isCurrentLocked(gen, idx) {
		m.mu.Unlock()
		m.logger.Debug("dropping stale advance", zap.Uint64("generation", gen), zap.Int("index", idx))
		return
	}
	m.advance = nil

	var ev Event
	finished := false
	if m.session.hasNext() {
		m.session.CurrentIndex++
		m.startQuestionLocked()
		ev = m.eventLocked(EventQuestion)
	} else {
		ev = m.finishLocked()
		finished = true
	}
	m.mu.Unlock()

	if finished {
		m.record(ev.Result)
	}
	m.dispatch(ev)
}

// finishLocked closes the session and enters results. The caller records the
// entry once mu is released.
func (m *SessionMachine) finishLocked() Event {
	m.timer.Cancel()
	m.cancelAdvanceLocked()

	s := m.session
	res := s.result(m.clock.Now())
	ev := m.eventLocked(EventFinished)
	ev.Result = &res

	m.result = &res
	m.session = nil
	m.generation++
	m.state = domain.StateResults
	m.logger.Info("quiz finished",
		zap.String("session", s.ID),
		zap.String("topic", s.Topic),
		zap.Int("score", res.Entry.Score),
		zap.Int("total", res.Entry.Total),
	)
	return ev
}

// record appends a completed session to the leaderboard. Failures are logged.
func (m *SessionMachine) record(res *Result) {
	ctx, cancel := context.WithTimeout(context.Background(), m.settings.RecordTimeout)
	defer cancel()
	if err := m.board.Append(ctx, res.Entry); err != nil {
		m.logger.Warn("completed session not recorded", zap.String("session", res.SessionID), zap.Error(err))
	}
}

// discardLocked cancels pending work and invalidates the current session.
func (m *SessionMachine) discardLocked() {
	m.timer.Cancel()
	m.cancelAdvanceLocked()
	m.gate.CancelAll(ActionQuit)
	m.session = nil
	m.generation++
}

func (m *SessionMachine) cancelAdvanceLocked() {
	if m.advance != nil {
		m.advance.Stop()
		m.advance = nil
	}
}

func (m *SessionMachine) eventLocked(typ EventType) Event {
	ev := Event{Type: typ, PlayerID: m.playerID}
	if s := m.session; s != nil {
		ev.SessionID = s.ID
		ev.Topic = s.Topic
		ev.QuestionIndex = s.CurrentIndex
	}
	return ev
}

func (m *SessionMachine) dispatch(events ...Event) {
	m.nmu.RLock()
	n := m.notifier
	m.nmu.RUnlock()
	if n == nil {
		return
	}
	for _, ev := range events {
		n.Notify(ev)
	}
}
