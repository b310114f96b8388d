package services

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when an entity does not exist
var ErrNotFound = errors.New("not found")

// ValidationError carries field-level messages for the form layer
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, "; "))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewFieldError builds a ValidationError with a single field message,
// used for uniqueness conflicts surfaced next to the conflicting field.
func NewFieldError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// StateError signals an illegal lifecycle transition (editing a non-draft
// invoice, paying a void invoice). Surfaced as a page-level banner.
type StateError struct {
	Message string
}

func (e *StateError) Error() string { return e.Message }

// NewStateError formats a StateError
func NewStateError(format string, args ...interface{}) *StateError {
	return &StateError{Message: fmt.Sprintf(format, args...)}
}
