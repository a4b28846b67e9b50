package app_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
	"knowledge-quiz/internal/infra/memory"
)

func TestLeaderboardAppendCapsAndEvictsOldest(t *testing.T) {
	ctx := context.Background()
	board := app.NewLeaderboard(memory.NewRecordStore(), 50, nil)

	for i := 0; i < 50; i++ {
		if err := board.Append(ctx, entry(i, 50, int64(i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if got := len(board.List(ctx)); got != 50 {
		t.Fatalf("expected 50 entries, got %d", got)
	}

	if err := board.Append(ctx, entry(99, 100, 1000)); err != nil {
		t.Fatalf("append 51st: %v", err)
	}
	list := board.List(ctx)
	if len(list) != 50 {
		t.Fatalf("expected cap of 50, got %d", len(list))
	}
	if list[0].Timestamp != 1000 {
		t.Fatalf("expected newest first, got %+v", list[0])
	}
	if list[49].Timestamp != 1 {
		t.Fatalf("expected oldest (timestamp 0) evicted, last is %+v", list[49])
	}
	for _, e := range list {
		if e.Timestamp == 0 {
			t.Fatalf("oldest entry still present")
		}
	}
}

func TestLeaderboardListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	board := app.NewLeaderboard(memory.NewRecordStore(), 50, nil)

	_ = board.Append(ctx, entry(7, 100, 1))
	_ = board.Append(ctx, entry(1, 14, 2))
	_ = board.Append(ctx, entry(4, 57, 3))

	list := board.List(ctx)
	want := []int64{3, 2, 1}
	for i, ts := range want {
		if list[i].Timestamp != ts {
			t.Fatalf("expected insertion order %v, got %+v", want, list)
		}
	}
}

func TestTopRankedOrdering(t *testing.T) {
	ctx := context.Background()
	board := app.NewLeaderboard(memory.NewRecordStore(), 50, nil)

	entries := []domain.LeaderboardEntry{
		entry(5, 71, 10),
		entry(7, 100, 11),
		entry(5, 71, 30),
		entry(3, 71, 40),
		entry(7, 100, 5),
		entry(0, 0, 50),
		entry(6, 86, 60),
	}
	for _, e := range entries {
		_ = board.Append(ctx, e)
	}

	ranked := board.TopRanked(ctx, 0)
	if len(ranked) != len(entries) {
		t.Fatalf("expected all entries, got %d", len(ranked))
	}
	for i := 0; i+1 < len(ranked); i++ {
		a, b := ranked[i], ranked[i+1]
		ok := a.Percentage > b.Percentage ||
			(a.Percentage == b.Percentage && a.Score > b.Score) ||
			(a.Percentage == b.Percentage && a.Score == b.Score && a.Timestamp >= b.Timestamp)
		if !ok {
			t.Fatalf("order violated at %d: %+v before %+v", i, a, b)
		}
	}
	if ranked[0].Timestamp != 11 {
		t.Fatalf("expected most recent perfect score first, got %+v", ranked[0])
	}

	top := board.TopRanked(ctx, 3)
	if len(top) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(top))
	}

	if list := board.List(ctx); list[0].Timestamp != 60 {
		t.Fatalf("ranking must not reorder storage, got %+v", list[0])
	}
}

func TestLeaderboardCorruptRecordIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	store.Put(app.LeaderboardKey, []byte("{not json"))
	board := app.NewLeaderboard(store, 50, nil)

	if list := board.List(ctx); len(list) != 0 {
		t.Fatalf("expected empty list for corrupt data, got %+v", list)
	}
	if err := board.Append(ctx, entry(3, 43, 1)); err != nil {
		t.Fatalf("append over corrupt data: %v", err)
	}
	if list := board.List(ctx); len(list) != 1 {
		t.Fatalf("expected corrupt data replaced, got %+v", list)
	}
}

func TestLeaderboardReadFailureIsEmpty(t *testing.T) {
	board := app.NewLeaderboard(failingStore{err: errors.New("disk gone")}, 50, nil)
	if list := board.List(context.Background()); len(list) != 0 {
		t.Fatalf("expected empty list, got %+v", list)
	}
	if ranked := board.TopRanked(context.Background(), 5); len(ranked) != 0 {
		t.Fatalf("expected empty ranking, got %+v", ranked)
	}
}

func TestLeaderboardWriteFailureIsPersistenceError(t *testing.T) {
	board := app.NewLeaderboard(failingStore{err: errors.New("read only")}, 50, nil)
	err := board.Append(context.Background(), entry(1, 14, 1))
	var perr *domain.PersistenceError
	if !errors.As(err, &perr) || perr.Key != app.LeaderboardKey {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
}

func TestLeaderboardClearRequiresConfirmation(t *testing.T) {
	ctx := context.Background()
	board := app.NewLeaderboard(memory.NewRecordStore(), 50, nil)
	_ = board.Append(ctx, entry(7, 100, 1))

	if err := board.Clear(ctx, "made-up"); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("expected confirmation error, got %v", err)
	}
	if len(board.List(ctx)) != 1 {
		t.Fatalf("unconfirmed clear must not delete")
	}

	canceled := board.RequestClear()
	if !board.CancelClear(canceled.ID) {
		t.Fatalf("expected cancel to succeed")
	}
	if err := board.Clear(ctx, canceled.ID); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("canceled confirmation must not clear, got %v", err)
	}

	c := board.RequestClear()
	if err := board.Clear(ctx, c.ID); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if len(board.List(ctx)) != 0 || len(board.TopRanked(ctx, 5)) != 0 {
		t.Fatalf("expected empty views after clear")
	}
	if err := board.Clear(ctx, c.ID); !errors.Is(err, domain.ErrConfirmationRequired) {
		t.Fatalf("confirmation must be single use, got %v", err)
	}
}

func TestThemePreferenceToggle(t *testing.T) {
	ctx := context.Background()
	store := memory.NewRecordStore()
	theme := app.NewThemePreference(store, nil)

	if theme.Dark(ctx) {
		t.Fatalf("expected light mode by default")
	}
	dark, err := theme.Toggle(ctx)
	if err != nil || !dark {
		t.Fatalf("expected dark after toggle, got %v %v", dark, err)
	}
	if !theme.Dark(ctx) {
		t.Fatalf("expected persisted dark mode")
	}
	raw, _ := store.Get(ctx, app.ThemeKey)
	if string(raw) != "true" {
		t.Fatalf("expected raw value true, got %q", raw)
	}

	// the theme key is independent of leaderboard capacity rules
	board := app.NewLeaderboard(store, 1, nil)
	_ = board.Append(ctx, entry(1, 14, 1))
	_ = board.Append(ctx, entry(2, 29, 2))
	if !theme.Dark(ctx) {
		t.Fatalf("leaderboard writes must not touch the theme")
	}
}

func TestPercentageAndBand(t *testing.T) {
	cases := []struct {
		correct, total, pct int
		band                string
	}{
		{7, 7, 100, "high"},
		{5, 7, 71, "high"},
		{3, 7, 43, "medium"},
		{1, 8, 13, "low"},
		{0, 7, 0, "low"},
	}
	for _, tc := range cases {
		t.Run(fmt.Sprintf("%d_of_%d", tc.correct, tc.total), func(t *testing.T) {
			if got := app.Percentage(tc.correct, tc.total); got != tc.pct {
				t.Fatalf("expected %d%%, got %d%%", tc.pct, got)
			}
			if got := app.ScoreBand(tc.pct); got != tc.band {
				t.Fatalf("expected band %s, got %s", tc.band, got)
			}
		})
	}
}

func TestNewLeaderboardEntry(t *testing.T) {
	at := time.Date(2026, time.October, 16, 15, 4, 0, 0, time.UTC)
	e := app.NewLeaderboardEntry("science", 7, 7, at)
	if e.Date != "Oct 16, 2026, 03:04 PM" {
		t.Fatalf("unexpected date %q", e.Date)
	}
	if e.Score != 7 || e.Total != 7 || e.Percentage != 100 || e.Timestamp != at.UnixMilli() {
		t.Fatalf("unexpected entry %+v", e)
	}
}

func entry(score, pct int, ts int64) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Date:       "Oct 16, 2026, 03:04 PM",
		Topic:      "science",
		Score:      score,
		Total:      7,
		Percentage: pct,
		Timestamp:  ts,
	}
}

type failingStore struct {
	err error
}

func (s failingStore) Get(context.Context, string) ([]byte, error) { return nil, s.err }

func (s failingStore) Update(context.Context, string, func([]byte) ([]byte, error)) error {
	return s.err
}

func (s failingStore) Delete(context.Context, string) error { return s.err }
