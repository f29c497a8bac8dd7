// Package errs defines the error kinds shared by the record engine.
//
// Every failure returned by a core operation is an *Error carrying one Kind.
// Callers branch on the kind with errors.Is:
//
//	if errors.Is(err, errs.ErrPermissionDenied) { ... }
//
// The wrapped cause (a driver error, a validation message) stays reachable
// through errors.Is/As as well.
package errs

import (
	"errors"
	"strings"
)

// Kind classifies a failure.
type Kind string

func (k Kind) Error() string { return string(k) }

const (
	ErrValidation       Kind = "validation error"
	ErrPermissionDenied Kind = "permission denied"
	ErrNotFound         Kind = "not found"
	ErrStorage          Kind = "storage error"
	ErrAuth             Kind = "authentication failed"
)

// Error is a typed failure from a core operation.
type Error struct {
	Kind    Kind
	Op      string // operation, e.g. "records.UpsertAttendance"
	Account string // target account, when there is one
	Field   string // offending field for validation errors
	Err     error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	b.WriteString(string(e.Kind))
	if e.Account != "" {
		b.WriteString(" (account ")
		b.WriteString(e.Account)
		b.WriteString(")")
	}
	if e.Field != "" {
		b.WriteString(" [")
		b.WriteString(e.Field)
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Message returns the cause text without the op/kind prefix, for user-facing
// row errors.
func (e *Error) Message() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return string(e.Kind)
}

// New builds an *Error.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Validation builds a validation error for a field.
func Validation(op, field string, err error) *Error {
	return &Error{Kind: ErrValidation, Op: op, Field: field, Err: err}
}

// Denied builds a permission error with a reason.
func Denied(op, account, reason string) *Error {
	return &Error{Kind: ErrPermissionDenied, Op: op, Account: account, Err: errors.New(reason)}
}

// NotFound builds a not-found error for an account.
func NotFound(op, account string) *Error {
	return &Error{Kind: ErrNotFound, Op: op, Account: account}
}

// Storage wraps a backing-store failure.
func Storage(op string, err error) *Error {
	return &Error{Kind: ErrStorage, Op: op, Err: err}
}

// KindOf returns the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	for _, k := range []Kind{ErrValidation, ErrPermissionDenied, ErrNotFound, ErrStorage, ErrAuth} {
		if errors.Is(err, k) {
			return k
		}
	}
	return ""
}

// Message returns a short user-facing text for err.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message()
	}
	return err.Error()
}
