package services

import (
	"fmt"
	"strings"
)

// ValidationError carries every violated rule so callers can render all
// problems at once. Always caller-correctable, never retried.
type ValidationError struct {
	Violations []string
}

func NewValidationError(violations ...string) *ValidationError {
	return &ValidationError{Violations: violations}
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Violations, "; ")
}

// StateError reports an operation that is well-formed but not allowed in the
// current state (event not active, event full, duplicate registration,
// category mismatch).
type StateError struct {
	Reason string
}

func NewStateError(format string, args ...any) *StateError {
	return &StateError{Reason: fmt.Sprintf(format, args...)}
}

func (e *StateError) Error() string {
	return e.Reason
}

// NotFoundError reports an unknown event/participant/submission/user id.
type NotFoundError struct {
	Resource string
	ID       string
}

func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// PersistenceError wraps a failed or timed-out store call. The operation has
// mutated no caller-visible state and is safe to retry.
type PersistenceError struct {
	Op  string
	Err error
}

func NewPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
