package app

import (
	"time"

	"github.com/google/uuid"

	"knowledge-quiz/internal/domain"
)

// entryDateLayout renders leaderboard dates like "Oct 16, 2026, 03:04 PM".
const entryDateLayout = "Jan 2, 2006, 03:04 PM"

// Session is one run of a quiz. It is owned by a SessionMachine and only
// mutated while the machine's lock is held.
type Session struct {
	ID             string
	Topic          string
	Questions      []domain.Question
	CurrentIndex   int
	CorrectCount   int
	IncorrectCount int
	Answers        []domain.AnswerRecord
	StartedAt      time.Time

	resolved   []bool
	generation uint64
}

// newSession snapshots the topic's questions in authored order.
func newSession(topic domain.Topic, generation uint64, now time.Time) *Session {
	questions := make([]domain.Question, len(topic.Questions))
	for i, q := range topic.Questions {
		options := make([]string, len(q.Options))
		copy(options, q.Options)
		questions[i] = domain.Question{Prompt: q.Prompt, Options: options, CorrectIndex: q.CorrectIndex}
	}
	return &Session{
		ID:         uuid.NewString(),
		Topic:      topic.ID,
		Questions:  questions,
		Answers:    make([]domain.AnswerRecord, 0, len(questions)),
		StartedAt:  now,
		resolved:   make([]bool, len(questions)),
		generation: generation,
	}
}

func (s *Session) current() domain.Question {
	return s.Questions[s.CurrentIndex]
}

func (s *Session) currentResolved() bool {
	return s.resolved[s.CurrentIndex]
}

func (s *Session) hasNext() bool {
	return s.CurrentIndex+1 < len(s.Questions)
}

// resolve marks the current question answered and applies the evaluation.
func (s *Session) resolve(selected *int, now time.Time) (Evaluation, domain.AnswerRecord) {
	s.resolved[s.CurrentIndex] = true
	ev := Evaluate(s.current(), selected)
	if ev.IsCorrect {
		s.CorrectCount++
	} else {
		s.IncorrectCount++
	}

	var sel *int
	if selected != nil {
		v := *selected
		sel = &v
	}
	rec := domain.AnswerRecord{
		QuestionIndex: s.CurrentIndex,
		SelectedIndex: sel,
		CorrectIndex:  ev.CorrectIndex,
		IsCorrect:     ev.IsCorrect,
		AnsweredAt:    now,
	}
	s.Answers = append(s.Answers, rec)
	return ev, rec
}

func (s *Session) answersCopy() []domain.AnswerRecord {
	out := make([]domain.AnswerRecord, len(s.Answers))
	copy(out, s.Answers)
	return out
}

// Result is the summary shown once a session completes.
type Result struct {
	SessionID string                  `json:"sessionId"`
	Entry     domain.LeaderboardEntry `json:"entry"`
	Correct   int                     `json:"correct"`
	Incorrect int                     `json:"incorrect"`
	Band      string                  `json:"band"`
	Answers   []domain.AnswerRecord   `json:"answers"`
}

func (s *Session) result(now time.Time) Result {
	entry := NewLeaderboardEntry(s.Topic, s.CorrectCount, len(s.Questions), now)
	return Result{
		SessionID: s.ID,
		Entry:     entry,
		Correct:   s.CorrectCount,
		Incorrect: s.IncorrectCount,
		Band:      ScoreBand(entry.Percentage),
		Answers:   s.answersCopy(),
	}
}

// NewLeaderboardEntry summarizes a completed session.
func NewLeaderboardEntry(topic string, correct, total int, at time.Time) domain.LeaderboardEntry {
	return domain.LeaderboardEntry{
		Date:       at.Format(entryDateLayout),
		Topic:      topic,
		Score:      correct,
		Total:      total,
		Percentage: Percentage(correct, total),
		Timestamp:  at.UnixMilli(),
	}
}

// Percentage returns correct/total as a whole percent, halves rounded up.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (correct*200 + total) / (2 * total)
}

// ScoreBand buckets a percentage into high, medium or low.
func ScoreBand(percentage int) string {
	switch {
	case percentage >= 70:
		return "high"
	case percentage >= 40:
		return "medium"
	default:
		return "low"
	}
}
