package services

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidID means an identifier is not a well-formed ObjectID.
	ErrInvalidID = errors.New("invalid identifier")
	// ErrNotFound means a well-formed identifier matched no record.
	ErrNotFound = errors.New("not found")
	// ErrNotOwner means the agent does not own the property (enforced ownership only).
	ErrNotOwner = errors.New("property is not owned by agent")
)

// ValidationError reports a missing or malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newRequiredError(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s is required", field)}
}

func newInvalidFieldError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("%s %s", field, reason)}
}

// IsValidationError reports whether err is, or wraps, a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
