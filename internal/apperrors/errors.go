// Package apperrors defines the error kinds surfaced by the service layer.
// The HTTP layer is the only place that translates a kind into a status code.
package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies an application error
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindTooManyRequests
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION_FAILED"
	case KindNotFound:
		return "NOT_FOUND"
	case KindConflict:
		return "CONFLICT"
	case KindUnauthorized:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL"
	}
}

// FieldError is a single named-field failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (f FieldError) String() string {
	return f.Field + ": " + f.Message
}

// Error is the error type returned by services
type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}

	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}
	return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, strings.Join(parts, "; "))
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Validation builds an aggregate validation failure
func Validation(fields ...FieldError) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: "One or more validation errors occurred",
		Fields:  fields,
	}
}

// NotFound reports an id that does not resolve
func NotFound(msg string) *Error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict reports an operation that is not legal in the entity's current state
// or that would break a uniqueness rule
func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

func Unauthorized(msg string) *Error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Kind: KindForbidden, Message: msg}
}

// TooManyRequests reports a throttled caller
func TooManyRequests(msg string) *Error {
	return &Error{Kind: KindTooManyRequests, Message: msg}
}

// Internal wraps an unexpected failure
func Internal(msg string, err error) *Error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// As extracts an *Error from the chain
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for foreign errors
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// FieldErrors accumulates field failures before they are reported together.
// Only the first message recorded for a field is kept.
type FieldErrors struct {
	items []FieldError
}

// Add records msg against field unless the field already failed
func (f *FieldErrors) Add(field, msg string) {
	if f.Has(field) {
		return
	}
	f.items = append(f.items, FieldError{Field: field, Message: msg})
}

// Has reports whether field already failed
func (f *FieldErrors) Has(field string) bool {
	for _, item := range f.items {
		if item.Field == field {
			return true
		}
	}
	return false
}

func (f *FieldErrors) Len() int {
	return len(f.items)
}

// Err returns nil when nothing failed, otherwise one Validation error
func (f *FieldErrors) Err() error {
	if len(f.items) == 0 {
		return nil
	}
	fields := make([]FieldError, len(f.items))
	copy(fields, f.items)
	return Validation(fields...)
}
