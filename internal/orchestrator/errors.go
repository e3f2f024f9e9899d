package orchestrator

import (
	"errors"
	"fmt"
)

var (
	// ErrRunCancelled is recorded for targets that were not visited because
	// the run's context was cancelled.
	ErrRunCancelled = errors.New("run cancelled")

	// ErrVisitPanicked is wrapped around a recovered panic from a visit.
	ErrVisitPanicked = errors.New("visit panicked")
)

// SetupError is returned when the browser session cannot be created.
// No target is visited after a SetupError.
type SetupError struct {
	Err error
}

// Error implements error.
func (e *SetupError) Error() string {
	return fmt.Sprintf("failed to set up browser session: %v", e.Err)
}

// Unwrap returns the factory error.
func (e *SetupError) Unwrap() error {
	return e.Err
}

// PersistenceError describes a failed save of a target's cookies. It does not
// change the target's collection outcome.
type PersistenceError struct {
	Target string
	Err    error
}

// Error implements error.
func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to save cookies for %s: %v", e.Target, e.Err)
}

// Unwrap returns the store error.
func (e *PersistenceError) Unwrap() error {
	return e.Err
}
