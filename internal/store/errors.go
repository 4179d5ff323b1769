package store

import "errors"

// ErrInvalidInput marks structurally malformed input handed to the store.
// Specific causes are wrapped around it.
var ErrInvalidInput = errors.New("invalid input")

// ValidationError is a business-rule violation. Its message is reported to
// clients verbatim.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Template rule violations.
var (
	ErrSubjectRequired   = &ValidationError{Message: "Subject is required for Standard templates."}
	ErrSubjectNotAllowed = &ValidationError{Message: "Subject is not allowed for Layout templates."}
	ErrBodyRequired      = &ValidationError{Message: "Either HtmlBody or TextBody must be provided."}
)
