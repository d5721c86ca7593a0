package seam

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrUnsupported is returned by dialect hooks for features the backend
	// or driver does not provide (comments, sequences, two-phase commit,
	// and so on). Callers must treat it as absence of a feature, never as
	// a fatal execution error.
	ErrUnsupported = errors.New("seam: feature not supported by dialect")

	// ErrNoSuchDialect is returned when a connection URL names a dialect
	// that has not been registered.
	ErrNoSuchDialect = errors.New("seam: unknown dialect")

	// ErrNoSuchPlugin is returned when a connection URL names an engine
	// plugin that has not been registered.
	ErrNoSuchPlugin = errors.New("seam: unknown plugin")
)

// IsUnsupported returns true if the error signals a missing dialect
// capability.
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}

// Unsupportedf returns an ErrUnsupported error annotated with the named
// operation. The result matches errors.Is(err, ErrUnsupported).
func Unsupportedf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrUnsupported, fmt.Sprintf(format, args...))
}

// StatementError wraps a driver-level failure together with the statement
// and parameters that were in flight. Driver errors are always wrapped
// before they reach application-level callers.
type StatementError struct {
	Statement  string
	Parameters any
	Err        error
}

// Error returns the error string.
func (e *StatementError) Error() string {
	return fmt.Sprintf("seam: statement failed: %v [SQL: %s]", e.Err, e.Statement)
}

// Unwrap returns the underlying driver error.
func (e *StatementError) Unwrap() error {
	return e.Err
}

// NewStatementError wraps err with the statement and parameters in flight.
func NewStatementError(statement string, params any, err error) *StatementError {
	return &StatementError{Statement: statement, Parameters: params, Err: err}
}

// IsStatementError returns true if the error is a StatementError.
func IsStatementError(err error) bool {
	if err == nil {
		return false
	}
	var e *StatementError
	return errors.As(err, &e)
}

// DisconnectError marks a driver error that was classified as connection
// loss by Dialect.IsDisconnect. The pool layer uses it to drive
// invalidation.
type DisconnectError struct {
	Err error
}

// Error returns the error string.
func (e *DisconnectError) Error() string {
	return fmt.Sprintf("seam: connection lost: %v", e.Err)
}

// Unwrap returns the underlying driver error.
func (e *DisconnectError) Unwrap() error {
	return e.Err
}

// NewDisconnectError wraps err as a disconnect condition.
func NewDisconnectError(err error) *DisconnectError {
	return &DisconnectError{Err: err}
}

// IsDisconnect returns true if the error was classified as connection loss.
func IsDisconnect(err error) bool {
	if err == nil {
		return false
	}
	var e *DisconnectError
	return errors.As(err, &e)
}

// ArgumentError reports invalid construction arguments, such as keyword
// arguments left unconsumed by plugins or an isolation level outside the
// dialect's accepted values.
type ArgumentError struct {
	Name string // Argument name
	Err  error  // Underlying cause
}

// Error returns the error string.
func (e *ArgumentError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("seam: invalid argument %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("seam: invalid argument: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *ArgumentError) Unwrap() error {
	return e.Err
}

// NewArgumentError returns a new ArgumentError for the named argument.
func NewArgumentError(name string, err error) *ArgumentError {
	return &ArgumentError{Name: name, Err: err}
}

// IsArgumentError returns true if the error is an ArgumentError.
func IsArgumentError(err error) bool {
	if err == nil {
		return false
	}
	var e *ArgumentError
	return errors.As(err, &e)
}
