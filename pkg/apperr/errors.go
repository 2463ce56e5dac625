// Package apperr wraps errors with a small closed set of codes, in the
// same WrapErrorf(err, code, "...") shape used throughout this module,
// extended with the fatal codes invariant checks need.
package apperr

import "fmt"

// Code classifies a wrapped error for the caller that ultimately decides
// an exit status or log severity.
type Code int

const (
	ErrInternalServerError Code = iota
	ErrNotFound
	ErrInputParse
	ErrInvariantViolation
	ErrIO
)

func (c Code) String() string {
	switch c {
	case ErrInternalServerError:
		return "internal_error"
	case ErrNotFound:
		return "not_found"
	case ErrInputParse:
		return "input_parse"
	case ErrInvariantViolation:
		return "invariant_violation"
	case ErrIO:
		return "io"
	default:
		return "unknown"
	}
}

// CodedError is an error carrying a Code alongside the wrapped cause.
type CodedError struct {
	Code Code
	msg  string
	err  error
}

func (e *CodedError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return fmt.Sprintf("%s: %v", e.msg, e.err)
}

func (e *CodedError) Unwrap() error { return e.err }

// WrapErrorf wraps err with a message and a Code. err may be nil, in
// which case the result still carries code and message (used at the
// boundary where an invariant is checked without an underlying error).
func WrapErrorf(err error, code Code, format string, args ...interface{}) error {
	return &CodedError{
		Code: code,
		msg:  fmt.Sprintf(format, args...),
		err:  err,
	}
}

// Invariant panics with a CodedError of code ErrInvariantViolation if cond
// is false. Invariant violations are programming errors, not recoverable
// conditions, so they panic rather than return an error.
func Invariant(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(WrapErrorf(nil, ErrInvariantViolation, format, args...))
	}
}
