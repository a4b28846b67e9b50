package memory

import (
	"testing"

	"knowledge-quiz/internal/app"
)

func TestSessionStoreLifecycle(t *testing.T) {
	store := NewSessionStore()
	created := 0
	create := func() *app.SessionMachine {
		created++
		return app.NewSessionMachine("p1", nil, nil, nil, app.DefaultSettings(), nil)
	}

	first := store.GetOrCreate("p1", create)
	if first == nil {
		t.Fatalf("expected machine")
	}
	if again := store.GetOrCreate("p1", create); again != first || created != 1 {
		t.Fatalf("expected existing machine reused, created=%d", created)
	}
	if _, ok := store.Get("p1"); !ok {
		t.Fatalf("expected machine present")
	}

	store.Delete("p1")
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("expected machine removed")
	}
}
