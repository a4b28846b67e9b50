package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/infra/sqlite"
)

func TestTopicsCommandListsBuiltInBank(t *testing.T) {
	path := writeConfig(t, "storage:\n  backend: memory\n")

	out, err := run(t, "topics", "--config", path)
	if err != nil {
		t.Fatalf("topics: %v", err)
	}
	for _, id := range []string{"science", "technology", "movies"} {
		if !strings.Contains(out, id) {
			t.Fatalf("expected %s in output:\n%s", id, out)
		}
	}
}

func TestLeaderboardCommandsOnSQLite(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "quiz.db")
	path := writeConfig(t, "storage:\n  backend: sqlite\nsqlite:\n  path: "+dbPath+"\n")

	store, err := sqlite.Open(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	board := app.NewLeaderboard(store, 50, nil)
	at := time.Date(2026, time.October, 16, 15, 4, 0, 0, time.UTC)
	_ = board.Append(context.Background(), app.NewLeaderboardEntry("movies", 3, 7, at))
	_ = board.Append(context.Background(), app.NewLeaderboardEntry("science", 7, 7, at.Add(time.Minute)))
	_ = store.Close()

	out, err := run(t, "leaderboard", "top", "--limit", "1", "--config", path)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if !strings.Contains(out, "science") || strings.Contains(out, "movies") || !strings.Contains(out, "7/7") {
		t.Fatalf("expected only the perfect science run:\n%s", out)
	}

	if _, err := run(t, "leaderboard", "clear", "--config", path); err == nil {
		t.Fatalf("expected clear without --yes to fail")
	}
	if _, err := run(t, "leaderboard", "clear", "--yes", "--config", path); err != nil {
		t.Fatalf("clear: %v", err)
	}

	out, err = run(t, "leaderboard", "list", "--config", path)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !strings.Contains(out, "no entries") {
		t.Fatalf("expected empty leaderboard:\n%s", out)
	}
}

func TestQuizSettingsFromConfig(t *testing.T) {
	path := writeConfig(t, "quiz:\n  questionTime: 20s\n  advanceDelay: 2s\nleaderboard:\n  previewSize: 3\n")
	cfg, _, err := loadConfig(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	s := quizSettings(cfg)
	if s.QuestionTime != 20*time.Second || s.AdvanceDelay != 2*time.Second || s.WarningAt != 5*time.Second {
		t.Fatalf("unexpected timing %+v", s)
	}
	if s.PreviewSize != 3 {
		t.Fatalf("expected preview size 3, got %d", s.PreviewSize)
	}
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}
