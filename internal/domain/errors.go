package domain

import (
	"errors"
	"strings"
)

var (
	// ErrNotAuthenticated is returned when a call needs a session and none is loaded.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrForbidden is returned when the current user lacks the admin role.
	ErrForbidden = errors.New("admin role required")
	// ErrUnreachable wraps transport failures where no HTTP response was received.
	ErrUnreachable = errors.New("backend unreachable")
	// ErrNotReady marks informational states such as a duel still waiting for its second player.
	ErrNotReady = errors.New("resource not ready")
	// ErrNoQuestions is returned when a quiz, duel or room has nothing to answer.
	ErrNoQuestions = errors.New("no questions available")
	// ErrSubmitting rejects input while a result submission is in flight.
	ErrSubmitting = errors.New("submission in progress")
	// ErrFinished rejects input after an attempt has been submitted.
	ErrFinished = errors.New("attempt already finished")
	// ErrNotHost is returned when a non-host tries to start a room.
	ErrNotHost = errors.New("only the host can start the room")
	// ErrCacheMiss is returned by chapter caches that do not hold the requested chapter.
	ErrCacheMiss = errors.New("chapter not cached")
)

// ValidationError lists form problems detected before any network call.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid input: " + strings.Join(e.Problems, "; ")
}

// NewValidationError builds a ValidationError from one or more problems.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}
