package workflow

import "context"

// StateMachine tracks the current state of a request item and validates
// role-gated transitions against the configured table
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state for the role
	CanFire(trigger Trigger, role Role) bool

	// Fire attempts to execute the trigger as the given role, transitioning
	// to the new state if the table, role gate, and guards allow it
	Fire(ctx context.Context, trigger Trigger, role Role) error

	// PermittedTriggers returns all triggers the role can fire in the current state
	PermittedTriggers(role Role) []Trigger
}
