// Package common defines shared constants and sentinel errors used across
// the notekeeper server. Callers should use errors.Is / errors.As to match
// these values.
package common

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Session errors. ErrSessionExpired wraps ErrUnauthenticated so callers
	// that only care about "not logged in" can match the broader kind.
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrSessionExpired  = fmt.Errorf("session expired: %w", ErrUnauthenticated)

	// Authorization errors.
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidPermission = errors.New("invalid permission string")

	// Login errors. The message never says which field was wrong.
	ErrCredentialInvalid = errors.New("invalid username or password")

	// Anti-automation errors.
	ErrCsrfInvalid  = errors.New("csrf token invalid")
	ErrSpamDetected = errors.New("spam detected")

	// Form validation.
	ErrValidationFailed = errors.New("validation failed")

	// Verify-token lifecycle.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// ValidationError carries field-level messages for re-display next to the
// offending inputs. Form-level messages go into Form.
type ValidationError struct {
	Fields map[string][]string
	Form   []string
}

// NewValidationError returns an empty ValidationError ready for Add calls.
func NewValidationError() *ValidationError {
	return &ValidationError{Fields: map[string][]string{}}
}

// Add appends a message for field. An empty field name adds a form-level message.
func (e *ValidationError) Add(field, msg string) {
	if field == "" {
		e.Form = append(e.Form, msg)
		return
	}
	if e.Fields == nil {
		e.Fields = map[string][]string{}
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// HasErrors reports whether any field or form message was recorded.
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0 || len(e.Form) > 0
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names)+len(e.Form))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Fields[name], "; "))
	}
	parts = append(parts, e.Form...)
	return ErrValidationFailed.Error() + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error { return ErrValidationFailed }

// ForbiddenError reports the role or permission that the caller lacked.
type ForbiddenError struct {
	RequiredRole       string
	RequiredPermission string
}

func (e *ForbiddenError) Error() string {
	if e.RequiredRole != "" {
		return "forbidden: required role: " + e.RequiredRole
	}
	return "forbidden: required permissions: " + e.RequiredPermission
}

func (e *ForbiddenError) Unwrap() error { return ErrForbidden }
