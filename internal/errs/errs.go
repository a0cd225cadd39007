// Package errs provides the structured error type backing every error kind
// in the subprocess execution subsystem's error model.
package errs

import "fmt"

// Code is a machine-readable error code, matchable via errors.As on *Error.
type Code string

const (
	// CodeInvalidArgument marks an empty argv or a contradictory stdio mode.
	CodeInvalidArgument Code = "INVALID_ARGUMENT"
	// CodeSpawnError marks a non-zero return from the spawn call itself.
	CodeSpawnError Code = "SPAWN_ERROR"
	// CodeKillError marks a kill() failure other than ESRCH.
	CodeKillError Code = "KILL_ERROR"
	// CodePidError marks a getpid() against a process with no live handle.
	CodePidError Code = "PID_ERROR"
	// CodeProcessFailed marks one or more chain members exiting non-zero.
	CodeProcessFailed Code = "PROCESS_FAILED"
	// CodeIoForwardError marks a forwarder task failure.
	CodeIoForwardError Code = "IO_FORWARD_ERROR"
	// CodePipeError marks open(f, ...) failing to drain stdout (UV_EPIPE equivalent).
	CodePipeError Code = "PIPE_ERROR"
)

// Error is the unified error type for this module.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// New creates an *Error with the given code and message.
func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Newf creates an *Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error { return e.Cause }

// WithCause attaches an underlying cause and returns the receiver.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// Is reports whether target is an *Error with the same code, so
// errors.Is(err, errs.New(CodePidError, "")) style checks work without
// comparing messages.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}
