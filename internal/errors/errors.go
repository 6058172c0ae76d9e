// Package errors provides error types shared by the MCP tool layer.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a wiki entity does not exist.
type NotFoundError struct {
	EntityType string // "page", "revision", "user"
	Identifier string // title, page ID, or revision ID
	Wiki       string // API endpoint, optional
}

func (e *NotFoundError) Error() string {
	what := e.EntityType
	if what == "" {
		what = "entity"
	}
	if e.Wiki != "" {
		return fmt.Sprintf("%s not found on %s: %s", what, e.Wiki, e.Identifier)
	}
	return fmt.Sprintf("%s not found: %s", what, e.Identifier)
}

// NewPageNotFoundError creates a NotFoundError for a page lookup.
func NewPageNotFoundError(title string) *NotFoundError {
	return &NotFoundError{
		EntityType: "page",
		Identifier: title,
	}
}

// ValidationError indicates invalid input parameters.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty for large or sensitive data)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// Required returns a ValidationError for a missing mandatory field.
func Required(field string) *ValidationError {
	return &ValidationError{Field: field, Message: "is required"}
}

// IsNotFound reports whether err is, or wraps, a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
