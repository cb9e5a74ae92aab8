// Package qerr defines the error taxonomy shared by the quantum engine.
//
// Three error kinds are raised immediately at the call site:
//   - ConfigError: invalid wires, mismatched sizes, malformed profiles
//   - StateError: an operation attempted in the wrong lifecycle state
//   - BackendError: submission failure, malformed response, policy limits
//
// Numeric drift is not an error until it crosses a hard threshold; below
// that it is collected by a Warnings accumulator and reported once.
package qerr

import (
	"errors"
	"fmt"
)

// Kind classifies engine errors.
type Kind int

// Error kinds.
const (
	KindConfig Kind = iota
	KindState
	KindBackend
	KindNumeric
)

// String returns the taxonomy name of the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "ConfigError"
	case KindState:
		return "StateError"
	case KindBackend:
		return "BackendError"
	case KindNumeric:
		return "NumericError"
	default:
		return "UnknownError"
	}
}

// Sentinels for errors.Is matching.
var (
	ErrConfig  = errors.New("config error")
	ErrState   = errors.New("state error")
	ErrBackend = errors.New("backend error")
	ErrNumeric = errors.New("numeric error")
)

// Error is the concrete error type returned by engine packages.
type Error struct {
	Kind      Kind   // Taxonomy bucket.
	Op        string // Operation that failed (e.g. "statevec.Apply").
	Details   string // Human readable details.
	Retryable bool   // Only meaningful for backend errors.
	Err       error  // Wrapped cause, may be nil.
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Op)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the wrapped cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrConfig:
		return e.Kind == KindConfig
	case ErrState:
		return e.Kind == KindState
	case ErrBackend:
		return e.Kind == KindBackend
	case ErrNumeric:
		return e.Kind == KindNumeric
	}
	return false
}

// Config builds a ConfigError.
func Config(op, format string, args ...any) error {
	return &Error{Kind: KindConfig, Op: op, Details: fmt.Sprintf(format, args...)}
}

// State builds a StateError.
func State(op, format string, args ...any) error {
	return &Error{Kind: KindState, Op: op, Details: fmt.Sprintf(format, args...)}
}

// Backend builds a BackendError wrapping err.
func Backend(op string, retryable bool, err error) error {
	return &Error{Kind: KindBackend, Op: op, Retryable: retryable, Err: err}
}

// Backendf builds a BackendError from a message.
func Backendf(op string, retryable bool, format string, args ...any) error {
	return &Error{Kind: KindBackend, Op: op, Retryable: retryable, Details: fmt.Sprintf(format, args...)}
}

// Numeric builds a NumericError (drift past the hard threshold).
func Numeric(op, format string, args ...any) error {
	return &Error{Kind: KindNumeric, Op: op, Details: fmt.Sprintf(format, args...)}
}

// IsRetryable reports whether err is a backend error marked retryable.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindBackend && e.Retryable
	}
	return false
}
