package domain

import (
	"errors"
	"fmt"
)

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnknownState    = errors.New("unknown conversation state")
	ErrLockTimeout     = errors.New("timed out waiting for conversation lock")
)

// TransitionConfigError is a programmer error: a state without a handler, or a
// handler that produced a state the transition table does not allow.
type TransitionConfigError struct {
	State  string
	Reason string
}

func (e *TransitionConfigError) Error() string {
	return fmt.Sprintf("transition config: state %q: %s", e.State, e.Reason)
}

// BackendError is returned when a commerce backend call fails. Status is the HTTP
// status of a non-success answer, or 0 when the request never got one (Err set).
type BackendError struct {
	Op     string
	Status int
	Body   string
	Err    error
}

func (e *BackendError) Error() string {
	if e.Status == 0 && e.Err != nil {
		return fmt.Sprintf("commerce %s: %v", e.Op, e.Err)
	}
	body := e.Body
	if len(body) > 256 {
		body = body[:256] + "..."
	}
	return fmt.Sprintf("commerce %s: http %d: %s", e.Op, e.Status, body)
}

func (e *BackendError) Unwrap() error { return e.Err }

// ValidationError marks user input that was rejected; the conversation stays put.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %q", e.Field, e.Value)
}

// StoreUnavailableError wraps any failure of the conversation state store.
type StoreUnavailableError struct {
	Op  string
	Err error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("state store %s: %v", e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Err }

// IsBackendStatus reports whether err is a BackendError with the given HTTP status.
func IsBackendStatus(err error, status int) bool {
	var be *BackendError
	return errors.As(err, &be) && be.Status == status
}
