package output

import (
	"errors"
	"fmt"
)

// Error is a structured error with code, message, and optional hint.
type Error struct {
	Code      string
	Message   string
	Hint      string
	Retryable bool
	Cause     error
}

func (e *Error) Error() string {
	if e.Hint != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Hint)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	return ExitCodeFor(e.Code)
}

// Error constructors for common cases.

func ErrGeneric(msg string) *Error {
	return &Error{Code: CodeGeneric, Message: msg}
}

func ErrGenericf(format string, args ...any) *Error {
	return &Error{Code: CodeGeneric, Message: fmt.Sprintf(format, args...)}
}

func ErrInvalidInput(msg string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg}
}

func ErrInvalidInputf(format string, args ...any) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

func ErrInvalidInputHint(msg, hint string) *Error {
	return &Error{Code: CodeInvalidInput, Message: msg, Hint: hint}
}

func ErrOAuth(msg string) *Error {
	return &Error{Code: CodeOAuth, Message: msg}
}

func ErrOAuthHint(msg, hint string) *Error {
	return &Error{Code: CodeOAuth, Message: msg, Hint: hint}
}

// ErrOAuthRetryable marks transient OAuth failures, such as the callback
// wait timing out before the browser redirect arrived.
func ErrOAuthRetryable(msg, hint string) *Error {
	return &Error{Code: CodeOAuth, Message: msg, Hint: hint, Retryable: true}
}

func ErrNoAccount(msg string) *Error {
	return &Error{Code: CodeNoAccount, Message: msg}
}

func ErrNoAccountf(format string, args ...any) *Error {
	return &Error{Code: CodeNoAccount, Message: fmt.Sprintf(format, args...)}
}

func ErrSecureStorage(msg string, cause error) *Error {
	return &Error{Code: CodeSecureStorage, Message: msg, Cause: cause}
}

func ErrSecureStoragef(format string, args ...any) *Error {
	return &Error{Code: CodeSecureStorage, Message: fmt.Sprintf(format, args...)}
}

// AsError attempts to convert an error to an *Error. Errors without a code
// fall back to the generic kind.
func AsError(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{
		Code:    CodeGeneric,
		Message: err.Error(),
		Cause:   err,
	}
}
