package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput signals a malformed or missing request field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthorized signals a missing or invalid session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrForbidden signals an authenticated caller without the required rights.
	ErrForbidden = errors.New("forbidden")
	// ErrReportNotFound signals a missing report.
	ErrReportNotFound = errors.New("report not found")

	// ErrVoteConflict signals a lost update on a vote transition.
	ErrVoteConflict = errors.New("vote conflict")
	// ErrStorage signals a backend failure. Details stay in the wrapped error.
	ErrStorage = errors.New("storage failure")
)

// ValidationError wraps ErrInvalidInput with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidInput.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// NewValidationError creates a validation error for the given field.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
