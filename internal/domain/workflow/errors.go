package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the
	// current state
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState is returned when a state does not belong to the
	// machine's state set
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed is returned when every candidate transition's guard
	// rejected the trigger
	ErrGuardFailed = errors.New("guard condition failed")
)
