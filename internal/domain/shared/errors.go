// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")
	ErrInvalidFormat   = errors.New("invalid format")

	// State errors
	ErrInvalidState    = errors.New("invalid state")
	ErrStateTransition = errors.New("invalid state transition")
	ErrTerminalState   = errors.New("record is in a terminal state")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")

	// Consistency errors
	ErrConflict           = errors.New("conflict")
	ErrPreconditionFailed = errors.New("precondition failed")

	// External service errors
	ErrExternalService    = errors.New("external service error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "practicante", "solicitud", "proceso", "recurso"
	Op      string // Operation that failed, e.g., "ValidatePayment", "GetOrCreate"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// TransitionError is returned when a pipeline transition is attempted from a
// state that does not permit it. It always carries enough context (current
// state, legal source states) for the caller to explain the rejection to an
// end user.
type TransitionError struct {
	Pipeline string   // "practicante" or "solicitud"
	From     string   // current state
	To       string   // attempted target state
	Allowed  []string // states from which the transition would be legal
}

// Error implements the error interface.
func (e *TransitionError) Error() string {
	return fmt.Sprintf(
		"%s: cannot transition from %q to %q (allowed from: %v)",
		e.Pipeline, e.From, e.To, e.Allowed,
	)
}

// Is makes TransitionError match ErrInvalidState and ErrStateTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrStateTransition || target == ErrInvalidState
}

// NewTransitionError creates a TransitionError for the given edge.
func NewTransitionError(pipeline, from, to string, allowed ...string) *TransitionError {
	return &TransitionError{Pipeline: pipeline, From: from, To: to, Allowed: allowed}
}

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if the error is a uniqueness/conflict error. A conflict on
// the (estudiante, grupo) pair is retryable: the colliding row now exists and
// a re-read resolves the race.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) || errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrInvalidFormat)
}

// IsInvalidState checks if the error is a state-machine violation.
func IsInvalidState(err error) bool {
	return errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrStateTransition) ||
		errors.Is(err, ErrTerminalState)
}

// IsForbidden checks if the error is an authorization rejection.
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden) || errors.Is(err, ErrUnauthorized)
}

// IsPreconditionFailed checks if required linked data is absent.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, ErrPreconditionFailed)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConflict)
}
