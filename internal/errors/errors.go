// Package errors provides centralized error definitions for the barter
// codebase: sentinel errors, semantic error types, and classification
// helpers. Expected guard-chain rejections are modelled as outcome values by
// their owning packages and never pass through here; this package covers the
// conditions that are genuinely errors.
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience so callers can import
// only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Sentinel errors.
var (
	// ErrRequestNotFound indicates an unregister for a request pair absent
	// from the registry. The two indexes are updated together, so hitting
	// this means an internal consistency bug: log loudly, fail only the
	// single operation.
	ErrRequestNotFound = New("pending request not found")
	// ErrQueueFull indicates the apply loop's bounded task queue rejected a
	// deferred step.
	ErrQueueFull = New("apply queue full")
	// ErrLoopClosed indicates a deferral after the apply loop shut down.
	ErrLoopClosed = New("apply loop closed")
)

// NotFoundError represents a resource that could not be found where the
// registry invariants say it must exist.
type NotFoundError struct {
	ResourceType string
	ResourceID   string
	cause        error
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{ResourceType: resourceType, ResourceID: resourceID}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Unwrap returns the underlying error.
func (e *NotFoundError) Unwrap() error { return e.cause }

// Is matches any *NotFoundError, plus the wrapped cause.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// StateConflictError represents a mutation attempted against a transaction
// that is already cancelled or ended. This is an expected benign race (the
// counterpart may have just finalized); callers reject the operation
// silently and never surface it to users.
type StateConflictError struct {
	TransactionID string
	State         string // "cancelled" or "ended"
}

// NewStateConflictError creates a StateConflictError.
func NewStateConflictError(transactionID, state string) *StateConflictError {
	return &StateConflictError{TransactionID: transactionID, State: state}
}

// Error returns the formatted error message.
func (e *StateConflictError) Error() string {
	return fmt.Sprintf("transaction '%s' is already %s", e.TransactionID, e.State)
}

// Is matches any *StateConflictError.
func (e *StateConflictError) Is(target error) bool {
	_, ok := target.(*StateConflictError)
	return ok
}

// IsStateConflict reports whether err is the benign terminal-transaction
// race, which callers handle by silent rejection.
func IsStateConflict(err error) bool {
	var sc *StateConflictError
	return As(err, &sc)
}

// IsNotFound reports whether err indicates a violated registry invariant.
// These are internal bugs: they must be logged loudly but fail only the
// single operation, never the process.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return As(err, &nf) || Is(err, ErrRequestNotFound)
}
