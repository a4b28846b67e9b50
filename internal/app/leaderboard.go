package app

import (
	"context"
	"encoding/json"
	"sort"

	"go.uber.org/zap"

	"knowledge-quiz/internal/domain"
)

// Keys of the persisted records.
const (
	LeaderboardKey = "quizLeaderboard"
	ThemeKey       = "darkMode"
)

// RecordStore persists opaque keyed records (in-memory, Redis, Postgres, SQLite).
type RecordStore interface {
	// Get returns the record, or nil with no error when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	// Update atomically replaces the record with fn(current). current is nil when absent.
	Update(ctx context.Context, key string, fn func(current []byte) ([]byte, error)) error
	Delete(ctx context.Context, key string) error
}

// Leaderboard keeps the capped, most-recent-first list of completed sessions.
type Leaderboard struct {
	store    RecordStore
	capacity int
	gate     *ConfirmationGate
	logger   *zap.Logger
}

// NewLeaderboard builds a leaderboard over store keeping at most capacity entries.
func NewLeaderboard(store RecordStore, capacity int, logger *zap.Logger) *Leaderboard {
	if capacity <= 0 {
		capacity = DefaultSettings().Capacity
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Leaderboard{
		store:    store,
		capacity: capacity,
		gate:     NewConfirmationGate(),
		logger:   logger,
	}
}

// Append prepends entry and drops the oldest entries beyond capacity.
func (l *Leaderboard) Append(ctx context.Context, entry domain.LeaderboardEntry) error {
	err := l.store.Update(ctx, LeaderboardKey, func(current []byte) ([]byte, error) {
		entries := l.decode(current)
		next := make([]domain.LeaderboardEntry, 0, len(entries)+1)
		next = append(next, entry)
		next = append(next, entries...)
		if len(next) > l.capacity {
			next = next[:l.capacity]
		}
		return json.Marshal(next)
	})
	if err != nil {
		perr := &domain.PersistenceError{Op: "append", Key: LeaderboardKey, Err: err}
		l.logger.Error("leaderboard append failed", zap.Error(perr))
		return perr
	}
	l.logger.Debug("leaderboard entry stored",
		zap.String("topic", entry.Topic),
		zap.Int("score", entry.Score),
		zap.Int("total", entry.Total),
	)
	return nil
}

// List returns the stored entries in insertion order, most recent first.
// Read failures yield an empty list.
func (l *Leaderboard) List(ctx context.Context) []domain.LeaderboardEntry {
	raw, err := l.store.Get(ctx, LeaderboardKey)
	if err != nil {
		l.logger.Warn("leaderboard read failed, treating as empty",
			zap.Error(&domain.PersistenceError{Op: "read", Key: LeaderboardKey, Err: err}))
		return []domain.LeaderboardEntry{}
	}
	return l.decode(raw)
}

// TopRanked returns up to limit entries ordered by percentage, then score, then
// recency. limit <= 0 returns every entry. Stored order is untouched.
func (l *Leaderboard) TopRanked(ctx context.Context, limit int) []domain.LeaderboardEntry {
	return RankEntries(l.List(ctx), limit)
}

// RequestClear opens the confirmation Clear requires.
func (l *Leaderboard) RequestClear() Confirmation {
	return l.gate.Request(ActionClear)
}

// CancelClear drops a pending clear confirmation.
func (l *Leaderboard) CancelClear(id string) bool {
	return l.gate.Cancel(id)
}

// Clear deletes every entry once confirmationID has been approved.
func (l *Leaderboard) Clear(ctx context.Context, confirmationID string) error {
	if !l.gate.Consume(confirmationID, ActionClear) {
		return &domain.ValidationError{Op: "clearLeaderboard", Err: domain.ErrConfirmationRequired}
	}
	if err := l.store.Delete(ctx, LeaderboardKey); err != nil {
		perr := &domain.PersistenceError{Op: "delete", Key: LeaderboardKey, Err: err}
		l.logger.Error("leaderboard clear failed", zap.Error(perr))
		return perr
	}
	l.logger.Info("leaderboard cleared")
	return nil
}

func (l *Leaderboard) decode(raw []byte) []domain.LeaderboardEntry {
	entries := []domain.LeaderboardEntry{}
	if len(raw) == 0 {
		return entries
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		l.logger.Warn("leaderboard record corrupt, treating as empty",
			zap.Error(&domain.PersistenceError{Op: "decode", Key: LeaderboardKey, Err: err}))
		return []domain.LeaderboardEntry{}
	}
	return entries
}

// RankEntries sorts a copy of entries by percentage desc, score desc and
// timestamp desc, truncated to limit when limit > 0.
func RankEntries(entries []domain.LeaderboardEntry, limit int) []domain.LeaderboardEntry {
	ranked := make([]domain.LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Percentage != b.Percentage {
			return a.Percentage > b.Percentage
		}
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		return a.Timestamp > b.Timestamp
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}
