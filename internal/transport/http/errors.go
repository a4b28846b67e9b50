package http

import (
	"errors"
	"net/http"

	"knowledge-quiz/internal/domain"
)

// errorBody is sent to clients for any failed request or intent.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newErrorBody(err error) errorBody {
	return errorBody{Code: errorCode(err), Message: err.Error()}
}

func errorCode(err error) string {
	switch {
	case errors.Is(err, domain.ErrTopicNotFound):
		return "topic_not_found"
	case errors.Is(err, domain.ErrSessionNotFound):
		return "session_not_found"
	case errors.Is(err, domain.ErrNoTopicSelected):
		return "no_topic_selected"
	case errors.Is(err, domain.ErrAlreadyResolved):
		return "already_resolved"
	case errors.Is(err, domain.ErrInvalidOption):
		return "invalid_option"
	case errors.Is(err, domain.ErrConfirmationRequired):
		return "confirmation_required"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	case errors.Is(err, domain.ErrInvalidQuestion):
		return "invalid_question"
	}
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return "persistence"
	}
	return "internal"
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrTopicNotFound), errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConfirmationRequired):
		return http.StatusPreconditionFailed
	case errors.Is(err, domain.ErrValidation):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
