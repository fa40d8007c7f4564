package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz does not exist on the backend.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrUnauthorized indicates the backend rejected the credentials.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrRateLimited indicates explanation generation hit the backend cooldown.
	ErrRateLimited = errors.New("rate limited")
	// ErrTaskNotFound indicates a task id is unknown to the backend. Polls treat
	// this as "not registered yet", not as a terminal failure.
	ErrTaskNotFound = errors.New("task not found")
	// ErrAttemptNotStarted is returned when submitting before a remote attempt exists.
	ErrAttemptNotStarted = errors.New("attempt not started")
	// ErrSubmitInFlight is returned when a submission is already outstanding.
	ErrSubmitInFlight = errors.New("submission already in flight")
	// ErrPollTimeout indicates the explanation task never reached a terminal state
	// within the poll budget.
	ErrPollTimeout = errors.New("explanation task polling timed out")
	// ErrNotAuthenticated is returned by session operations that need a verified user.
	ErrNotAuthenticated = errors.New("not authenticated")
)

// ProtocolError marks a backend response that failed schema validation.
// Malformed payloads are rejected at the client boundary instead of flowing
// into the attempt state machine.
type ProtocolError struct {
	Endpoint string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("malformed response from %s: %v", e.Endpoint, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }
