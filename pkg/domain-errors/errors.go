// Package domainerrors defines the coded error type returned across the
// compliance core. Every error carries a Code plus, when known, the offending
// field or entity id so the transport layer can render a precise message.
//
// Stores return sentinel errors (see pkg/platform/sentinel); services translate
// them into coded errors with New or Wrap.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a failure for callers and transport mapping.
type Code string

const (
	// CodeValidation covers bad input shape or range (score out of bounds,
	// missing resolution notes, unknown enum values).
	CodeValidation Code = "validation_failed"
	// CodeNotFound is returned when a referenced id is unknown.
	CodeNotFound Code = "not_found"
	// CodeInvalidTransition is returned for disallowed manual status changes
	// and for operations on entities in the wrong state.
	CodeInvalidTransition Code = "invalid_transition"
	// CodePersistence wraps storage adapter failures. Always propagated.
	CodePersistence Code = "persistence_failure"
	// CodeAuditWrite marks a failed audit append; the enclosing mutation is
	// rolled back.
	CodeAuditWrite    Code = "audit_write_failure"
	CodeBadRequest    Code = "bad_request"
	CodeUnauthorized  Code = "unauthorized"
	CodeConflict      Code = "conflict"
	CodeTimeout       Code = "timeout"
	CodeInternal      Code = "internal_error"
	CodeInvariant     Code = "invariant_violation"
	CodeUnavailable   Code = "unavailable"
	CodeNotConfigured Code = "not_configured"
)

// Error is the structured error used by the domain and service layers.
type Error struct {
	Code     Code
	Message  string
	Field    string
	EntityID string
	Err      error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Err: err}
}

// WithField records the offending input field.
func (e *Error) WithField(field string) *Error {
	e.Field = field
	return e
}

// WithEntity records the id of the entity the error refers to.
func (e *Error) WithEntity(entityID string) *Error {
	e.EntityID = entityID
	return e
}

// As extracts the outermost *Error from err's chain.
func As(err error) (*Error, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// HasCode reports whether any *Error in err's chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is reports whether the outermost coded error in err's chain has code.
func Is(err error, code Code) bool {
	de, ok := As(err)
	return ok && de.Code == code
}

// CodeOf returns the outermost code, or CodeInternal for uncoded errors.
func CodeOf(err error) Code {
	if de, ok := As(err); ok {
		return de.Code
	}
	return CodeInternal
}
