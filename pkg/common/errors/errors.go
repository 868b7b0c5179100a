package errors

import (
	"errors"
	"fmt"
)

// Common error types used across the taskpool library

var (
	// ErrPoolStopped indicates that a submission was attempted after
	// shutdown of the pool had begun
	ErrPoolStopped = errors.New("pool is stopped")

	// ErrNilTask indicates that a nil task was submitted
	ErrNilTask = errors.New("task is nil")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrDuplicateEntry indicates that a schedule entry ID is already in use
	ErrDuplicateEntry = errors.New("duplicate schedule entry")
)

// IsRejection returns true if the error indicates that a submission was
// definitively rejected rather than failed for an unexpected reason
func IsRejection(err error) bool {
	return errors.Is(err, ErrPoolStopped) || errors.Is(err, ErrNilTask)
}

// ValidationError describes a configuration value that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError for the given module and field.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint to the error and returns it.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap allows errors.Is(err, ErrInvalidConfiguration) to match any
// validation error.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}
