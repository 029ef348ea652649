// Package errs defines the error taxonomy shared by every component of
// beacon-deploy. Each failure surfaced to the CLI carries exactly one Kind
// so callers can report configuration mistakes differently from transient
// network failures without inspecting error strings.
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes a failure.
type Kind int

const (
	// KindConfig is a missing or malformed required input.
	KindConfig Kind = iota
	// KindNetwork is a content-store or chain RPC failure.
	KindNetwork
	// KindSerialization is malformed artifact or metadata JSON.
	KindSerialization
	// KindEncoding is invalid hex, ABI, or signing material.
	KindEncoding
	// KindInvalidInput is a business-rule violation, e.g. artifact
	// bytecode missing its 0x prefix.
	KindInvalidInput
)

// String returns a human-readable label for the kind.
func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "configuration error"
	case KindNetwork:
		return "network error"
	case KindSerialization:
		return "serialization error"
	case KindEncoding:
		return "encoding error"
	case KindInvalidInput:
		return "invalid input"
	default:
		return "error"
	}
}

// Error is a categorized failure wrapping its underlying cause.
type Error struct {
	Kind Kind
	Op   string // short description of the failing operation
	Err  error  // underlying cause, may be nil
}

// New wraps err with a kind and operation description.
func New(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// Newf creates a kinded error from a format string with no underlying cause.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any error in err's chain carries kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == k
	}
	return false
}
