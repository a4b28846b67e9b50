package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicNotFound indicates the topic content could not be loaded.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrInvalidQuestion is returned when bank content breaks the authoring rules.
	ErrInvalidQuestion = errors.New("invalid question")
	// ErrSessionNotFound is returned when no machine exists for a player.
	ErrSessionNotFound = errors.New("quiz session not found")

	// ErrValidation matches every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidState means the operation is not allowed in the current state.
	ErrInvalidState = errors.New("operation not allowed in current state")
	// ErrNoTopicSelected is returned by start when no topic is pending.
	ErrNoTopicSelected = errors.New("no topic selected")
	// ErrAlreadyResolved is returned when the current question was already answered or timed out.
	ErrAlreadyResolved = errors.New("question already resolved")
	// ErrInvalidOption is returned for an option index outside [0,3].
	ErrInvalidOption = errors.New("option index out of range")
	// ErrConfirmationRequired is returned when a guarded operation has no approved confirmation.
	ErrConfirmationRequired = errors.New("confirmation required")
)

// ValidationError reports an operation invoked outside its required state or
// without its precondition. Nothing was mutated when it is returned.
type ValidationError struct {
	Op    string
	State State
	Err   error
}

func (e *ValidationError) Error() string {
	if e.State != "" {
		return fmt.Sprintf("%s (state %s): %v", e.Op, e.State, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrValidation) match any validation failure.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// PersistenceError reports a read, write or decode failure of a stored record.
type PersistenceError struct {
	Op  string
	Key string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
