package store

import "errors"

// Standard store error types that all implementations should use.
var (
	// ErrKeyNotFound indicates the requested key has no value.
	ErrKeyNotFound = errors.New("key not found")

	// ErrConfigNotFound indicates no workflow config exists for the given id.
	ErrConfigNotFound = errors.New("workflow config not found")

	// ErrStateNotFound indicates no editor state exists for the given name.
	ErrStateNotFound = errors.New("workflow state not found")

	// ErrNoPausedState indicates no pause state exists for the given
	// (workflowId, jobId) pair, or it was already consumed by a prior resume.
	ErrNoPausedState = errors.New("no paused state found")

	// ErrCorruptPauseState indicates a pause state is missing required fields.
	ErrCorruptPauseState = errors.New("pause state is corrupt")
)

// IsConfigNotFound checks if an error indicates a workflow config was not found.
func IsConfigNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound)
}

// IsNoPausedState checks if an error indicates a missing or consumed pause state.
func IsNoPausedState(err error) bool {
	return errors.Is(err, ErrNoPausedState)
}

// IsCorruptPauseState checks if an error indicates a malformed pause state.
func IsCorruptPauseState(err error) bool {
	return errors.Is(err, ErrCorruptPauseState)
}
