// Package gkerr defines the error taxonomy shared by the query compiler
// and the mutation manager.
//
// Error kinds:
//   - Attribute: unknown/malformed attribute path, invalid value syntax,
//     short search token, duplicated parameter key, invalid return property
//   - NotFound: a selection that required at least one match found none
//   - Ambiguous: a selection matched more records than its exactlyN contract
//   - Exists: the store reported a duplicate-key violation
//   - Permission: the access gate denied the operation
//
// Compilation errors are fail-fast: they are raised before any store
// round-trip. Store-level errors are rewrapped into this taxonomy by the
// mutation manager; unrecognized store errors pass through annotated with
// the failing statement.
package gkerr

import (
	"errors"
	"fmt"
)

// Kind categorizes engine errors.
type Kind string

const (
	// KindAttribute indicates an invalid attribute path, value syntax or
	// query option detected during compilation.
	KindAttribute Kind = "ATTRIBUTE_ERROR"

	// KindNotFound indicates a required record was not found.
	KindNotFound Kind = "NOT_FOUND"

	// KindAmbiguous indicates a selection matched more records than allowed.
	KindAmbiguous Kind = "AMBIGUOUS_RESULT"

	// KindExists indicates a duplicate-key violation reported by the store.
	KindExists Kind = "RECORD_EXISTS"

	// KindPermission indicates the access gate denied the operation.
	KindPermission Kind = "PERMISSION_DENIED"
)

// Error is the structured error type for all engine error kinds.
//
// Error includes structured fields for diagnostics: the offending attribute
// (for compilation errors) and the statement text (for store errors passed
// back to the caller).
type Error struct {
	// Kind identifies the error category.
	Kind Kind

	// Message is a human-readable description.
	Message string

	// Attr names the offending attribute, if any.
	Attr string

	// Statement holds the compiled statement text for store-side failures.
	Statement string

	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch {
	case e.Attr != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s (attr=%s): %v", e.Kind, e.Message, e.Attr, e.Err)
	case e.Attr != "":
		return fmt.Sprintf("%s: %s (attr=%s)", e.Kind, e.Message, e.Attr)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Attribute creates an attribute error for the given attribute path.
func Attribute(attr, format string, args ...any) *Error {
	return &Error{
		Kind:    KindAttribute,
		Message: fmt.Sprintf(format, args...),
		Attr:    attr,
	}
}

// NotFound creates a not-found error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Ambiguous creates an ambiguous-result error.
func Ambiguous(format string, args ...any) *Error {
	return &Error{Kind: KindAmbiguous, Message: fmt.Sprintf(format, args...)}
}

// Exists creates a record-exists error wrapping the store cause.
func Exists(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindExists, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Permission creates a permission-denied error.
func Permission(format string, args ...any) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// is reports whether err is an *Error of the given kind.
// Uses errors.As to handle wrapped errors.
func is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsAttribute returns true if the error is an attribute error.
func IsAttribute(err error) bool { return is(err, KindAttribute) }

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool { return is(err, KindNotFound) }

// IsAmbiguous returns true if the error is an ambiguous-result error.
func IsAmbiguous(err error) bool { return is(err, KindAmbiguous) }

// IsExists returns true if the error is a record-exists error.
func IsExists(err error) bool { return is(err, KindExists) }

// IsPermission returns true if the error is a permission error.
func IsPermission(err error) bool { return is(err, KindPermission) }
