package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrResponderRequired  = errors.New("responder id required for this transition")
	ErrNotAssignee        = errors.New("alert is not assigned to this responder")
	ErrStatusConflict     = errors.New("alert status changed concurrently")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrForbidden          = errors.New("responder belongs to another user")
	ErrResponderConflict  = errors.New("user already has a responder record")
)

// InvalidTransitionError описывает запрещенный переход
type InvalidTransitionError struct {
	From AlertStatus
	To   AlertStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition alert from %q to %q", e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error {
	return ErrInvalidTransition
}
