package app

import (
	"sync"
	"time"

	"knowledge-quiz/internal/clock"
)

// TimerStatus is the observable state of a question countdown.
type TimerStatus struct {
	Remaining time.Duration `json:"remaining"`
	Seconds   int           `json:"seconds"`
	Warning   bool          `json:"warning"`
	Running   bool          `json:"running"`
}

// QuestionTimer counts one question down in fixed ticks and fires its expiry
// callback exactly once. Start always cancels the previous countdown, so at most
// one countdown is live per timer.
type QuestionTimer struct {
	clock  clock.Clock
	tick   time.Duration
	warnAt time.Duration

	mu        sync.Mutex
	gen       uint64
	remaining time.Duration
	running   bool
	task      clock.Task
}

// NewQuestionTimer builds a stopped timer.
func NewQuestionTimer(c clock.Clock, tick, warnAt time.Duration) *QuestionTimer {
	if tick <= 0 {
		tick = time.Second
	}
	return &QuestionTimer{clock: c, tick: tick, warnAt: warnAt}
}

// Start begins a fresh countdown of duration. onTick runs after every decrement,
// onExpire once when the countdown reaches zero. Neither runs after Cancel or a
// later Start.
func (t *QuestionTimer) Start(duration time.Duration, onTick func(TimerStatus), onExpire func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stopLocked()
	t.gen++
	t.remaining = duration
	t.running = true
	t.scheduleLocked(t.gen, onTick, onExpire)
}

// Cancel stops the countdown. Calling it on a stopped timer is a no-op.
func (t *QuestionTimer) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		return
	}
	t.stopLocked()
	t.gen++
	t.running = false
}

// Status returns the current countdown view.
func (t *QuestionTimer) Status() TimerStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked()
}

func (t *QuestionTimer) statusLocked() TimerStatus {
	return TimerStatus{
		Remaining: t.remaining,
		Seconds:   int((t.remaining + t.tick - 1) / t.tick),
		Warning:   t.running && t.remaining <= t.warnAt,
		Running:   t.running,
	}
}

func (t *QuestionTimer) stopLocked() {
	if t.task != nil {
		t.task.Stop()
		t.task = nil
	}
}

func (t *QuestionTimer) scheduleLocked(gen uint64, onTick func(TimerStatus), onExpire func()) {
	t.task = t.clock.AfterFunc(t.tick, func() { t.fire(gen, onTick, onExpire) })
}

func (t *QuestionTimer) fire(gen uint64, onTick func(TimerStatus), onExpire func()) {
	t.mu.Lock()
	if gen != t.gen || !t.running {
		t.mu.Unlock()
		return
	}
	t.remaining -= t.tick
	if t.remaining < 0 {
		t.remaining = 0
	}
	expired := t.remaining == 0
	status := t.statusLocked()
	if expired {
		t.running = false
		t.task = nil
		status.Running = false
	} else {
		t.scheduleLocked(gen, onTick, onExpire)
	}
	t.mu.Unlock()

	if onTick != nil {
		onTick(status)
	}
	if expired && onExpire != nil {
		onExpire()
	}
}
