package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFields means client input was absent or malformed.
	ErrMissingFields = errors.New("missing or invalid fields")
	// ErrNotAuthorized is returned when a student is not owned by the caller.
	// Nonexistent students produce the same error.
	ErrNotAuthorized = errors.New("not authorized")
	// ErrStoreFailure wraps every persistence error.
	ErrStoreFailure = errors.New("store failure")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotVerified        = errors.New("email not verified")
	ErrInvalidToken       = errors.New("invalid or expired verification token")
)

// ValidationError lists the fields that failed validation.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingFields, strings.Join(e.Fields, ", "))
}

func (e *ValidationError) Unwrap() error { return ErrMissingFields }

// Invalid builds a ValidationError for the given fields.
func Invalid(fields ...string) error {
	return &ValidationError{Fields: fields}
}

// StoreFailure tags a driver error so callers can match ErrStoreFailure
// while the cause stays available for logging.
func StoreFailure(op string, err error) error {
	return fmt.Errorf("%s: %w", op, errors.Join(ErrStoreFailure, err))
}
