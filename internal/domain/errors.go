package domain

import "fmt"

// Error types for consistent error handling across the reconciliation core.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrFormat indicates a fixed-width encode/decode contract violation:
// malformed input, wrong record width, or a numeric value that does not
// fit its field.
type ErrFormat struct {
	Field   string
	Message string
}

func (e *ErrFormat) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("format error on field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("format error: %s", e.Message)
}

// ErrInvalidState indicates an illegal state transition. The entity is
// left unchanged.
type ErrInvalidState struct {
	Entity  string
	From    string
	To      string
	Message string
}

func (e *ErrInvalidState) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("invalid %s transition: %s -> %s", e.Entity, e.From, e.To)
}

// ErrConflict indicates an idempotency violation: re-processing an
// operation with data that contradicts what was already recorded.
type ErrConflict struct {
	Resource string
	ID       string
	Message  string
}

func (e *ErrConflict) Error() string {
	return fmt.Sprintf("conflict on %s %s: %s", e.Resource, e.ID, e.Message)
}

// ErrBusinessRule indicates a domain constraint violation, e.g.
// deactivating a PIX key that still backs pending transactions.
type ErrBusinessRule struct {
	Rule    string
	Message string
}

func (e *ErrBusinessRule) Error() string {
	return fmt.Sprintf("business rule violated [%s]: %s", e.Rule, e.Message)
}

// ErrExternalService indicates a failure in an external collaborator call.
type ErrExternalService struct {
	Service string
	Err     error
}

func (e *ErrExternalService) Error() string {
	return fmt.Sprintf("external service error [%s]: %v", e.Service, e.Err)
}

func (e *ErrExternalService) Unwrap() error {
	return e.Err
}
