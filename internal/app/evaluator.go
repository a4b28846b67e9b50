package app

import "knowledge-quiz/internal/domain"

// Evaluation is the outcome of scoring one question.
type Evaluation struct {
	IsCorrect    bool           `json:"isCorrect"`
	CorrectIndex int            `json:"correctIndex"`
	Outcome      domain.Outcome `json:"outcome"`
}

// Evaluate scores selected against the question. A nil selection is a timeout
// and never correct. It has no side effects.
func Evaluate(q domain.Question, selected *int) Evaluation {
	ev := Evaluation{CorrectIndex: q.CorrectIndex}
	switch {
	case selected == nil:
		ev.Outcome = domain.OutcomeTimeout
	case *selected == q.CorrectIndex:
		ev.IsCorrect = true
		ev.Outcome = domain.OutcomeCorrect
	default:
		ev.Outcome = domain.OutcomeIncorrect
	}
	return ev
}
