package domain

import (
	"fmt"
	"time"
)

// OptionCount is the number of options every question carries.
const OptionCount = 4

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Prompt       string   `json:"prompt" yaml:"prompt"`
	Options      []string `json:"options" yaml:"options"`
	CorrectIndex int      `json:"correctIndex" yaml:"correctIndex"`
}

// Validate checks the authoring rules of a question.
func (q Question) Validate() error {
	if q.Prompt == "" {
		return fmt.Errorf("%w: empty prompt", ErrInvalidQuestion)
	}
	if len(q.Options) != OptionCount {
		return fmt.Errorf("%w: %q has %d options, want %d", ErrInvalidQuestion, q.Prompt, len(q.Options), OptionCount)
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= OptionCount {
		return fmt.Errorf("%w: %q correct index %d out of range", ErrInvalidQuestion, q.Prompt, q.CorrectIndex)
	}
	return nil
}

// Topic is a named, ordered collection of questions.
type Topic struct {
	ID          string     `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Questions   []Question `json:"questions" yaml:"questions"`
}

// Validate checks the topic and every question in it.
func (t Topic) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("%w: empty topic id", ErrInvalidQuestion)
	}
	if len(t.Questions) == 0 {
		return fmt.Errorf("%w: topic %q has no questions", ErrInvalidQuestion, t.ID)
	}
	for i, q := range t.Questions {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("topic %q question %d: %w", t.ID, i, err)
		}
	}
	return nil
}

// Summary returns the listing view of the topic.
func (t Topic) Summary() TopicSummary {
	return TopicSummary{ID: t.ID, Description: t.Description, QuestionCount: len(t.Questions)}
}

// TopicSummary is what the selection screen lists.
type TopicSummary struct {
	ID            string `json:"id"`
	Description   string `json:"description"`
	QuestionCount int    `json:"questionCount"`
}

// AnswerRecord is the immutable log entry for one resolved question.
// A nil SelectedIndex means the timer expired.
type AnswerRecord struct {
	QuestionIndex int       `json:"questionIndex"`
	SelectedIndex *int      `json:"selectedIndex"`
	CorrectIndex  int       `json:"correctIndex"`
	IsCorrect     bool      `json:"isCorrect"`
	AnsweredAt    time.Time `json:"answeredAt"`
}

// LeaderboardEntry is the persisted summary of one completed session.
type LeaderboardEntry struct {
	Date       string `json:"date"`
	Topic      string `json:"topic"`
	Score      int    `json:"score"`
	Total      int    `json:"total"`
	Percentage int    `json:"percentage"`
	Timestamp  int64  `json:"timestamp"`
}

// Outcome classifies an evaluated question.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeIncorrect Outcome = "incorrect"
	OutcomeTimeout   Outcome = "timeout"
)

// State is a session state machine state.
type State string

const (
	StateTopicSelection State = "topicSelection"
	StateActive         State = "active"
	StateResults        State = "results"
)
