package redis

import (
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"knowledge-quiz/internal/app"
)

func TestSessionStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewSessionStore(newClient(mr), time.Minute)

	created := 0
	create := func() *app.SessionMachine {
		created++
		return app.NewSessionMachine("p1", nil, nil, nil, app.DefaultSettings(), nil)
	}
	first := store.GetOrCreate("p1", create)
	if second := store.GetOrCreate("p1", create); second != first || created != 1 {
		t.Fatalf("expected a single machine per player, created=%d", created)
	}
	if !mr.Exists("quiz:player:p1") {
		t.Fatalf("expected redis key to be set")
	}
	if ttl := mr.TTL("quiz:player:p1"); ttl != time.Minute {
		t.Fatalf("expected liveness ttl of a minute, got %v", ttl)
	}

	store.Delete("p1")
	if mr.Exists("quiz:player:p1") {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get("p1"); ok {
		t.Fatalf("expected machine forgotten")
	}
}
