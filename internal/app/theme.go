package app

import (
	"context"
	"strconv"

	"go.uber.org/zap"

	"knowledge-quiz/internal/domain"
)

// ThemePreference persists the dark mode toggle under its own key.
type ThemePreference struct {
	store  RecordStore
	logger *zap.Logger
}

func NewThemePreference(store RecordStore, logger *zap.Logger) *ThemePreference {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ThemePreference{store: store, logger: logger}
}

// Dark reports the stored preference. Missing or unreadable values mean light mode.
func (p *ThemePreference) Dark(ctx context.Context) bool {
	raw, err := p.store.Get(ctx, ThemeKey)
	if err != nil {
		p.logger.Warn("theme read failed, using default",
			zap.Error(&domain.PersistenceError{Op: "read", Key: ThemeKey, Err: err}))
		return false
	}
	return parseDark(raw)
}

// Toggle flips the preference and returns the new value.
func (p *ThemePreference) Toggle(ctx context.Context) (bool, error) {
	var dark bool
	err := p.store.Update(ctx, ThemeKey, func(current []byte) ([]byte, error) {
		dark = !parseDark(current)
		return []byte(strconv.FormatBool(dark)), nil
	})
	if err != nil {
		perr := &domain.PersistenceError{Op: "write", Key: ThemeKey, Err: err}
		p.logger.Error("theme toggle failed", zap.Error(perr))
		return false, perr
	}
	return dark, nil
}

func parseDark(raw []byte) bool {
	dark, err := strconv.ParseBool(string(raw))
	return err == nil && dark
}
