// Package repository declares the storage contracts the workflow engine
// depends on. Persistence implementation (SQL schema, migrations, an ORM)
// is out of scope — only the interfaces here, and the in-memory reference
// adapter in the memory subpackage, are part of this repository.
package repository

import "fmt"

// ErrorKind classifies a repository failure the way spec.md §7 classifies
// tool-level errors, so the tool layer can translate directly.
type ErrorKind string

const (
	NotFound        ErrorKind = "NotFound"
	ValidationError ErrorKind = "ValidationError"
	ConflictError   ErrorKind = "ConflictError"
	DatabaseError   ErrorKind = "DatabaseError"
	UnknownError    ErrorKind = "UnknownError"
)

// Error is the discriminated failure type every repository operation
// returns in place of a bare error. It still satisfies the error interface
// so callers that only care about "did this fail" can treat it as one.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// AsError converts a possibly-nil *Error into the error interface, avoiding
// the typed-nil-in-interface trap that (error)(e) would hit when e is nil.
func (e *Error) AsError() error {
	if e == nil {
		return nil
	}
	return e
}

// NewError constructs a repository Error.
func NewError(kind ErrorKind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Result is a discriminated Success(value) | Error(kind, message) outcome.
// Generated operations return Result[T] rather than the (T, error) idiom so
// the error kind travels with the value instead of being inferred from a
// wrapped error chain.
type Result[T any] struct {
	value T
	err   *Error
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v}
}

// Err wraps a failure.
func Err[T any](kind ErrorKind, format string, args ...any) Result[T] {
	return Result[T]{err: NewError(kind, format, args...)}
}

// FromError lifts a generic error into a Result, classifying nil as success.
func FromError[T any](v T, err error) Result[T] {
	if err == nil {
		return Ok(v)
	}
	if re, ok := err.(*Error); ok {
		return Result[T]{err: re}
	}
	return Err[T](UnknownError, "%v", err)
}

// IsSuccess reports whether the result holds a value.
func (r Result[T]) IsSuccess() bool { return r.err == nil }

// Value returns the wrapped value and ok=true on success, or the zero value
// and ok=false on failure.
func (r Result[T]) Value() (T, bool) {
	if r.err != nil {
		var zero T
		return zero, false
	}
	return r.value, true
}

// Error returns the wrapped *Error, or nil on success.
func (r Result[T]) Error() *Error {
	return r.err
}

// ErrFrom lifts an *Error from one Result into a differently-typed Result,
// for call sites that fan out across several typed operations and need to
// propagate a failure from one leg without re-deriving its kind/message.
func ErrFrom[T any](e *Error) Result[T] {
	return Result[T]{err: e}
}

// Unwrap returns the value and a plain error, for call sites that prefer the
// idiomatic Go shape at the boundary.
func (r Result[T]) Unwrap() (T, error) {
	if r.err != nil {
		var zero T
		return zero, r.err
	}
	return r.value, nil
}
