package app

import "time"

// Settings holds the quiz timing and leaderboard constants.
type Settings struct {
	QuestionTime time.Duration
	WarningAt    time.Duration
	Tick         time.Duration
	AdvanceDelay time.Duration
	Capacity     int
	PreviewSize  int
	// RecordTimeout bounds the leaderboard write made when a session completes.
	RecordTimeout time.Duration
}

// DefaultSettings returns the stock quiz rules: 15s per question, warning at 5s,
// 1.5s before advancing, 50 stored entries and a top-5 preview.
func DefaultSettings() Settings {
	return Settings{
		QuestionTime:  15 * time.Second,
		WarningAt:     5 * time.Second,
		Tick:          time.Second,
		AdvanceDelay:  1500 * time.Millisecond,
		Capacity:      50,
		PreviewSize:   5,
		RecordTimeout: 5 * time.Second,
	}
}

// withDefaults fills zero fields from DefaultSettings.
func (s Settings) withDefaults() Settings {
	d := DefaultSettings()
	if s.QuestionTime <= 0 {
		s.QuestionTime = d.QuestionTime
	}
	if s.WarningAt <= 0 {
		s.WarningAt = d.WarningAt
	}
	if s.Tick <= 0 {
		s.Tick = d.Tick
	}
	if s.AdvanceDelay <= 0 {
		s.AdvanceDelay = d.AdvanceDelay
	}
	if s.Capacity <= 0 {
		s.Capacity = d.Capacity
	}
	if s.PreviewSize <= 0 {
		s.PreviewSize = d.PreviewSize
	}
	if s.RecordTimeout <= 0 {
		s.RecordTimeout = d.RecordTimeout
	}
	return s
}
