package app

// EventType names a session notification.
type EventType string

const (
	EventStarted   EventType = "started"
	EventTick      EventType = "tick"
	EventEvaluated EventType = "evaluated"
	EventQuestion  EventType = "question"
	EventFinished  EventType = "finished"
	EventQuit      EventType = "quit"
)

// Event is a fire-and-forget notification about a session.
type Event struct {
	Type          EventType    `json:"type"`
	PlayerID      string       `json:"playerId,omitempty"`
	SessionID     string       `json:"sessionId,omitempty"`
	Topic         string       `json:"topic,omitempty"`
	QuestionIndex int          `json:"questionIndex"`
	SelectedIndex *int         `json:"selectedIndex,omitempty"`
	Evaluation    *Evaluation  `json:"evaluation,omitempty"`
	Timer         *TimerStatus `json:"timer,omitempty"`
	Result        *Result      `json:"result,omitempty"`
}

// Notifier receives session events. Implementations must not block and must
// not call back into the machine synchronously.
type Notifier interface {
	Notify(Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Event)

func (f NotifierFunc) Notify(ev Event) { f(ev) }

// MultiNotifier fans an event out to every non-nil notifier.
type MultiNotifier []Notifier

func (m MultiNotifier) Notify(ev Event) {
	for _, n := range m {
		if n != nil {
			n.Notify(ev)
		}
	}
}
