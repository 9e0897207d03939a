package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

// Is reports whether any error in err's chain is of type T.
func Is[T error](err error) bool {
	var target T
	return errors.As(err, &target)
}

// ValidationError means the caller supplied something unusable:
// no resolvable image, empty winner pool, bad argument.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("Validation error: %s", e.Message)
}

// StateError means the contest is not in a state that allows the operation.
type StateError struct {
	Message string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("State error: %s", e.Message)
}

type NotFoundError struct {
	Message string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Not found: %s", e.Message)
}

// ExternalIOError wraps a failed call to the messaging board.
type ExternalIOError struct {
	Op  string
	Err error
}

func (e *ExternalIOError) Error() string {
	return fmt.Sprintf("board %s failed: %v", e.Op, e.Err)
}

func (e *ExternalIOError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to a chat user for err.
func UserMessage(err error) string {
	var (
		validation *ValidationError
		state      *StateError
		notFound   *NotFoundError
		external   *ExternalIOError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Message
	case errors.As(err, &state):
		return state.Message
	case errors.As(err, &notFound):
		return notFound.Message
	case errors.As(err, &external):
		return "Something went wrong talking to Discord, try again later."
	default:
		return "Internal error."
	}
}

// StatusCode maps err onto an HTTP status.
func StatusCode(err error) int {
	var withCode *ErrorWithStatusCode
	switch {
	case errors.As(err, &withCode):
		return withCode.StatusCode
	case Is[*ValidationError](err):
		return http.StatusBadRequest
	case Is[*StateError](err):
		return http.StatusConflict
	case Is[*NotFoundError](err):
		return http.StatusNotFound
	case Is[*ExternalIOError](err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
