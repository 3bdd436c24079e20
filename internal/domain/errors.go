package domain

import (
	"errors"
	"fmt"
)

// Error kinds shared by every service. Callers match them with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrNotFound   = errors.New("not found")
	ErrConfig     = errors.New("configuration error")
)

// ErrMissingCredential is returned by model clients before any network call
// when no API key is configured.
var ErrMissingCredential = &Error{Kind: ErrConfig, Message: "no API key configured for model provider"}

// Error carries a human-readable message tagged with one of the error kinds.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

// Validationf builds a validation error with a descriptive message.
func Validationf(format string, args ...any) error {
	return &Error{Kind: ErrValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf builds a not-found error.
func NotFoundf(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

// Configf builds a configuration error (unknown rule, unknown setting key).
func Configf(format string, args ...any) error {
	return &Error{Kind: ErrConfig, Message: fmt.Sprintf(format, args...)}
}
