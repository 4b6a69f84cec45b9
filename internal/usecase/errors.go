package usecase

import (
	"fmt"

	"krib-booking/pkg/utils"
)

// ValidationError is a client input problem. Reason is safe to show.
type ValidationError struct {
	Reason string
	Fields map[string]string
}

func (e *ValidationError) Error() string { return e.Reason }

func NewValidationError(format string, args ...any) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// NewFieldValidationError wraps validator output keyed by field
func NewFieldValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Reason: "validation failed: " + utils.FormatValidationErrors(fields), Fields: fields}
}

type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// InvalidStateError is a disallowed lifecycle transition
type InvalidStateError struct {
	Current   string
	Requested string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("InvalidStateTransition: cannot move booking from %s to %s", e.Current, e.Requested)
}

// ExternalServiceError is a failure of the payment processor. Message is the
// processor's own wording.
type ExternalServiceError struct {
	Service string
	Message string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Service, e.Message)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
