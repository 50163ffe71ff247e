package search

import (
	"errors"
	"fmt"
)

// Kind classifies search failures
type Kind string

const (
	KindInvalidInput      Kind = "INVALID_INPUT"
	KindDependencyFailure Kind = "DEPENDENCY_FAILURE"
)

// Sentinels for errors.Is
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrDependencyFailure = errors.New("dependency failure")
)

// Error is returned by every Engine operation.
// Message is safe to show to clients; Err carries detail for server logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels
func (e *Error) Is(target error) bool {
	switch target {
	case ErrInvalidInput:
		return e.Kind == KindInvalidInput
	case ErrDependencyFailure:
		return e.Kind == KindDependencyFailure
	}
	return false
}

func invalidInput(field, message string) *Error {
	return &Error{Kind: KindInvalidInput, Field: field, Message: message}
}

func dependencyFailure(op string, err error) *Error {
	return &Error{
		Kind:    KindDependencyFailure,
		Message: fmt.Sprintf("failed to load %s", op),
		Err:     err,
	}
}
