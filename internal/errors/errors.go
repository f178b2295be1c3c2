package errors

import (
	"errors"
	"fmt"
	"strings"
)

var ErrUnauthorized = errors.New("user is not authorized")
var ErrForbidden = errors.New("operation is forbidden for user")

// ErrNotFound is returned by single-entity reads when the backend has no such entity.
var ErrNotFound = errors.New("entity not found")

// FieldError describes one failed constraint of an outgoing payload.
type FieldError struct {
	Field string
	Rule  string
}

// ValidationError is returned before any network call when a payload does not match
// its declared shape.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Rule
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, rule string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Rule: rule}}}
}

// AuthError reports a missing or rejected session.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string {
	return "auth: " + e.Reason
}

func (e *AuthError) Unwrap() error { return ErrUnauthorized }

// TransportError carries a non-2xx response or a network failure (Status == 0).
type TransportError struct {
	Method  string
	Path    string
	Status  int
	Body    string
	Message string
	Err     error
}

func (e *TransportError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
	}
	msg := e.Message
	if msg == "" {
		msg = e.Body
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
}

func (e *TransportError) Unwrap() error { return e.Err }

// StatusCode returns the HTTP status of a TransportError anywhere in the chain, or 0.
func StatusCode(err error) int {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Status
	}
	return 0
}

// UserMessage returns the text shown next to a failed form: the server message when
// there is one, the error text otherwise.
func UserMessage(err error) string {
	var te *TransportError
	if errors.As(err, &te) && te.Message != "" {
		return te.Message
	}
	return err.Error()
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

func IsAuth(err error) bool {
	var ae *AuthError
	return errors.As(err, &ae)
}

func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}
