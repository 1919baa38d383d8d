// Package service implements the application operations of the procurement
// workflow: request lifecycle, cost comparisons, purchase orders, delivery
// tracking, reference-data guards, and the audit log. Every mutation runs the
// transition through the state machine, then applies a guarded write inside a
// transaction so a stale from-state surfaces as a Conflict instead of a
// silent overwrite.
package service

import (
	"errors"

	"github.com/krishsoni15/procureflow/internal/domain/apperr"
	"github.com/krishsoni15/procureflow/internal/domain/workflow"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// transitionError maps a state machine failure onto the application error
// taxonomy: wrong role is Forbidden, wrong from-state is Conflict (the status
// acted as the optimistic guard), failed guard is a validation problem.
func transitionError(err error) error {
	switch {
	case errors.Is(err, workflow.ErrRoleNotAllowed):
		return apperr.Forbidden(err.Error())
	case errors.Is(err, workflow.ErrInvalidTransition):
		return apperr.Conflict(err.Error())
	case errors.Is(err, workflow.ErrGuardFailed):
		return apperr.Validation(err.Error())
	default:
		return err
	}
}
