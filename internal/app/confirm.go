package app

import (
	"sync"

	"github.com/google/uuid"
)

// Action names an operation guarded by user confirmation.
type Action string

const (
	ActionQuit  Action = "quit"
	ActionClear Action = "clearLeaderboard"
)

// Confirmation is a pending "are you sure?" returned to the caller. The caller
// approves it by passing its ID to the guarded operation, or cancels it.
type Confirmation struct {
	ID     string `json:"id"`
	Action Action `json:"action"`
}

// ConfirmationGate tracks outstanding confirmations. Each one is single use.
type ConfirmationGate struct {
	mu      sync.Mutex
	pending map[string]Action
}

func NewConfirmationGate() *ConfirmationGate {
	return &ConfirmationGate{pending: make(map[string]Action)}
}

// Request opens a confirmation for action.
func (g *ConfirmationGate) Request(action Action) Confirmation {
	c := Confirmation{ID: uuid.NewString(), Action: action}
	g.mu.Lock()
	g.pending[c.ID] = action
	g.mu.Unlock()
	return c
}

// Consume approves and removes the confirmation. It reports false when id is
// unknown, already used, or was opened for another action.
func (g *ConfirmationGate) Consume(id string, action Action) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	got, ok := g.pending[id]
	if !ok || got != action {
		return false
	}
	delete(g.pending, id)
	return true
}

// Cancel drops the confirmation without running anything.
func (g *ConfirmationGate) Cancel(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.pending[id]; !ok {
		return false
	}
	delete(g.pending, id)
	return true
}

// CancelAll drops every confirmation for action.
func (g *ConfirmationGate) CancelAll(action Action) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for id, a := range g.pending {
		if a == action {
			delete(g.pending, id)
		}
	}
}
