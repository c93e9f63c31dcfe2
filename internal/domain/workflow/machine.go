package workflow

import "context"

// StateMachine tracks the current state of a document and validates
// transitions against its configured lifecycle.
type StateMachine interface {
	// State returns the current state
	State() State

	// IsTerminal returns true if the current state permits no transitions
	IsTerminal() bool

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state
	// if the lifecycle permits it and a guard (when present) passes
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the
	// current state
	PermittedTriggers() []Trigger
}
