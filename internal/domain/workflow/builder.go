package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions out of a specific state
type StateConfiguration interface {
	// Permit allows the listed roles to fire the trigger, transitioning to the target state
	Permit(trigger Trigger, toState State, roles ...Role) StateConfiguration

	// PermitIf is Permit with an additional guard condition
	PermitIf(trigger Trigger, toState State, guard GuardFunc, roles ...Role) StateConfiguration
}

// transition is one row of the table: target state, role gate, optional guard
type transition struct {
	toState State
	roles   map[Role]bool
	guard   GuardFunc
}

func (t transition) allowsRole(role Role) bool {
	// An empty role set means any valid role may fire the trigger
	if len(t.roles) == 0 {
		return true
	}
	return t.roles[role]
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state.
// Configurations are copied so machines built from the same builder are independent.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	configsCopy := make(map[State]*stateConfig)
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition)
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			fromState:   state,
			transitions: transitionsCopy,
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

// Permit allows the listed roles to fire the trigger toward the target state
func (c *stateConfig) Permit(trigger Trigger, toState State, roles ...Role) StateConfiguration {
	return c.PermitIf(trigger, toState, nil, roles...)
}

// PermitIf is Permit with an additional guard condition
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc, roles ...Role) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	roleSet := make(map[Role]bool, len(roles))
	for _, role := range roles {
		if !role.IsValid() {
			panic(fmt.Sprintf("invalid role: %s", role))
		}
		roleSet[role] = true
	}

	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		roles:   roleSet,
		guard:   guard,
	})

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is permitted in the current state for the role.
// Guards are not evaluated here since no context is available.
func (m *stateMachine) CanFire(trigger Trigger, role Role) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}

	for _, t := range config.transitions[trigger] {
		if t.allowsRole(role) {
			return true
		}
	}
	return false
}

// Fire attempts to execute the trigger as the given role
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger, role Role) error {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return fmt.Errorf("%w: cannot fire %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions, exists := config.transitions[trigger]
	if !exists || len(transitions) == 0 {
		return fmt.Errorf("%w: cannot fire %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	roleAllowed := false
	for _, t := range transitions {
		if !t.allowsRole(role) {
			continue
		}
		roleAllowed = true
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			return nil
		}
	}

	if !roleAllowed {
		return fmt.Errorf("%w: role %s cannot fire %s from state %s", ErrRoleNotAllowed, role, trigger, m.currentState)
	}

	return fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

// PermittedTriggers returns all triggers the role can fire in the current state
func (m *stateMachine) PermittedTriggers(role Role) []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.transitions))
	for trigger, transitions := range config.transitions {
		for _, t := range transitions {
			if t.allowsRole(role) {
				triggers = append(triggers, trigger)
				break
			}
		}
	}

	return triggers
}
