// Package pngerr defines the structured error type shared by option
// resolution and execution.
//
// Callers should branch on Kind rather than matching error strings. Use
// errors.As to extract *Error, or the IsKind and KindOf helpers.
package pngerr

import (
	"errors"
	"fmt"
)

// Kind is a stable category for programmatic error handling.
type Kind string

const (
	// KindInvalidChunkName: a chunk identifier is not exactly 4 bytes.
	KindInvalidChunkName Kind = "InvalidChunkName"

	// KindForbiddenChunkStrip: a strip list names a critical chunk.
	KindForbiddenChunkStrip Kind = "ForbiddenChunkStrip"

	// KindCompressionLevelOutOfRange: compressionLevel outside [0,12].
	KindCompressionLevelOutOfRange Kind = "CompressionLevelOutOfRange"

	// KindZopfliIterationsOutOfRange: zopfliIterations outside [1,255].
	KindZopfliIterationsOutOfRange Kind = "ZopfliIterationsOutOfRange"

	// KindEngineFailure: the optimization engine reported a failure.
	KindEngineFailure Kind = "EngineFailure"

	// KindInternal marks mapping failures that the closed option
	// enumerations should make unreachable.
	KindInternal Kind = "Internal"
)

// Error is the structured error returned by resolution and execution.
//
// Value carries the offending input (a chunk name, a level) when there is
// one. Message is for humans; do not match on it.
type Error struct {
	Kind    Kind
	Value   string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Code returns the status code a binding should report for this error.
// Validation failures are invalid arguments; engine failures are generic.
func (e *Error) Code() string {
	switch e.Kind {
	case KindEngineFailure, KindInternal:
		return "GenericFailure"
	default:
		return "InvalidArg"
	}
}

// IsValidation reports whether the error was raised before any engine call.
func (e *Error) IsValidation() bool {
	switch e.Kind {
	case KindInvalidChunkName, KindForbiddenChunkStrip,
		KindCompressionLevelOutOfRange, KindZopfliIterationsOutOfRange:
		return true
	}
	return false
}

// New returns an *Error of the given kind.
func New(kind Kind, value, format string, args ...any) error {
	return &Error{Kind: kind, Value: value, Message: fmt.Sprintf(format, args...)}
}

// EngineFailure wraps an engine error, preserving its message verbatim.
func EngineFailure(cause error) error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: KindEngineFailure, Message: cause.Error(), Cause: cause}
}

// IsKind reports whether err is (or wraps) an *Error with the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// KindOf returns the Kind of a structured error, or "" if err is not one.
func KindOf(err error) Kind {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Kind
}
