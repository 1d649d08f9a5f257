package game

import (
	"errors"
	"fmt"
)

// Failures surfaced by the core. Callers classify with errors.Is.
var (
	ErrUnauthenticated    = errors.New("not authenticated")
	ErrUnauthorized       = errors.New("not a participant of this game")
	ErrNotFound           = errors.New("game not found or unauthorized")
	ErrAlreadyActive      = errors.New("player already has an active game")
	ErrNotActive          = errors.New("game is not active")
	ErrWaitingForOpponent = fmt.Errorf("%w: waiting for opponent", ErrNotActive)
	ErrNotJoinable        = errors.New("game not joinable")
	ErrLengthMismatch     = errors.New("guess length does not match word length")
	ErrInvalidGuess       = errors.New("guess must contain letters only")
	ErrInvalidMode        = errors.New("invalid game mode")
	ErrPersistence        = errors.New("persistence failure")
)

// PersistenceError reports a store failure during an operation.
// Partial is set when earlier steps of the operation were already written
// (for example the guess was recorded but the outcome update failed); the
// caller should re-fetch the session instead of resubmitting.
type PersistenceError struct {
	Op      string
	Partial bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Partial {
		return fmt.Sprintf("%s (partially applied): %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is makes every PersistenceError match ErrPersistence.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

// IsPartial reports whether err is a partially applied persistence failure.
func IsPartial(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe) && pe.Partial
}
