// Package errors defines the domain error taxonomy shared by the
// services and the HTTP layer.
package errors

import "fmt"

// DomainError is a recoverable business-rule violation with a stable
// machine-readable code. Storage failures are not DomainErrors; they
// propagate as wrapped errors and surface as 500s.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// ValidationError names the specific request field that failed
// validation. It satisfies the DomainError contract for HTTP mapping.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError builds a field-level validation failure.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
