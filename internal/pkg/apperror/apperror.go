// internal/pkg/apperror/apperror.go
package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies business errors so the HTTP layer can map them to
// status codes without string matching.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindStateTransition    Kind = "state_transition"
	KindQuantityConstraint Kind = "quantity_constraint"
	KindReferential        Kind = "referential"
	KindPersistence        Kind = "persistence"
)

// Error is a structured business error. Fields carries optional
// field-level detail for validation failures.
type Error struct {
	Kind    Kind              `json:"kind"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Validation creates a ValidationError
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationField creates a ValidationError attributed to a single field
func ValidationField(field, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: fmt.Sprintf(format, args...),
		Fields:  map[string]string{field: fmt.Sprintf(format, args...)},
	}
}

// StateTransition creates a StateTransitionError
func StateTransition(format string, args ...interface{}) *Error {
	return &Error{Kind: KindStateTransition, Message: fmt.Sprintf(format, args...)}
}

// QuantityConstraint creates a QuantityConstraintError
func QuantityConstraint(format string, args ...interface{}) *Error {
	return &Error{Kind: KindQuantityConstraint, Message: fmt.Sprintf(format, args...)}
}

// Referential creates a ReferentialError
func Referential(format string, args ...interface{}) *Error {
	return &Error{Kind: KindReferential, Message: fmt.Sprintf(format, args...)}
}

// Persistence wraps a storage failure. The cause is kept for logging
// but never serialized to the caller.
func Persistence(cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: KindPersistence, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf returns the kind of err if it is an apperror, or "" otherwise
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

// IsKind reports whether err is an apperror of the given kind
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
