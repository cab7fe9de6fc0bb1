// Package tasteerrors provides sentinel and custom error types for the application.
package tasteerrors

// ErrNotFound represents a "not found" error.
// Use when a requested resource doesn't exist.
var ErrNotFound = &NotFoundError{}

// NotFoundError is a sentinel error for resources that are not found.
type NotFoundError struct {
	Resource string
	Message  string
}

// NewNotFoundError creates a new NotFoundError with a custom message.
func NewNotFoundError(resource, message string) *NotFoundError {
	return &NotFoundError{
		Resource: resource,
		Message:  message,
	}
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Resource != "" {
		return e.Resource + " not found"
	}

	return "resource not found"
}

// Is implements the error interface for error comparison.
func (e *NotFoundError) Is(target error) bool {
	_, ok := target.(*NotFoundError)

	return ok
}

// ErrValidation represents a validation error.
// Use when client input fails validation.
var ErrValidation = &ValidationError{}

// ValidationError is a sentinel error for validation failures.
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a new ValidationError with a custom message.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Field != "" {
		return "validation failed for field: " + e.Field
	}

	return "validation error"
}

// Is implements the error interface for error comparison.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)

	return ok
}

// ErrUnavailable is the sentinel for service-unavailable conditions (embedding model
// not configured, vector index unreachable at startup). These are configuration
// failures and must surface to the caller, never degrade silently.
var ErrUnavailable = &UnavailableError{}

// UnavailableError is a sentinel error for missing or failed required dependencies.
type UnavailableError struct {
	Component string
	Message   string
}

// NewUnavailableError creates an UnavailableError with a custom message.
func NewUnavailableError(component, message string) *UnavailableError {
	return &UnavailableError{Component: component, Message: message}
}

// Error implements the error interface.
func (e *UnavailableError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.Component != "" {
		return e.Component + " unavailable"
	}

	return "service unavailable"
}

// Is implements the error interface for error comparison.
func (e *UnavailableError) Is(target error) bool {
	_, ok := target.(*UnavailableError)

	return ok
}
