package shared

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Is matches domain errors by code, so errors.Is(err, ErrNotFound)
// holds for every entity-specific not-found error
func (e *DomainError) Is(target error) bool {
	de, ok := target.(*DomainError)
	return ok && de.Code == e.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error carrying the entity's
// logical name, e.g. "Archive not found"
func NewNotFoundError(entity string) *DomainError {
	return NewDomainError("NOT_FOUND", fmt.Sprintf("%s not found", entity))
}

// NewValidationError creates an input-validation error
func NewValidationError(message string) *DomainError {
	return NewDomainError("VALIDATION", message)
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
	ErrForbidden     = NewDomainError("FORBIDDEN", "Access to this resource is forbidden")

	// ErrResourcesNotReady signals a row-lock conflict on a bulk write path.
	// It is retryable, as opposed to validation errors.
	ErrResourcesNotReady = NewDomainError("RESOURCES_NOT_READY", "Current resources are not ready for update")
)

// IsRetryable reports whether the error is a transient condition the
// caller may retry, currently only the bulk-write lock conflict.
func IsRetryable(err error) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == "RESOURCES_NOT_READY"
}
