package app_test

import (
	"testing"

	"knowledge-quiz/internal/app"
	"knowledge-quiz/internal/domain"
)

func TestEvaluate(t *testing.T) {
	q := domain.Question{Prompt: "2+2?", Options: []string{"3", "4", "5", "6"}, CorrectIndex: 1}
	right, wrong := 1, 3

	cases := []struct {
		name     string
		selected *int
		correct  bool
		outcome  domain.Outcome
	}{
		{"correct", &right, true, domain.OutcomeCorrect},
		{"incorrect", &wrong, false, domain.OutcomeIncorrect},
		{"timeout", nil, false, domain.OutcomeTimeout},
	}
	for _, tc := range cases {
		ev := app.Evaluate(q, tc.selected)
		if ev.IsCorrect != tc.correct || ev.Outcome != tc.outcome || ev.CorrectIndex != 1 {
			t.Fatalf("%s: unexpected evaluation %+v", tc.name, ev)
		}
	}
}
