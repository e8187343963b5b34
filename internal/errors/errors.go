// Package errors defines the coded error type shared by the update flow and
// its adapters. Codes are stable strings so they can be logged, stored in the
// check history and emitted by `prochub --check --json`.
package errors

import "errors"

// Code identifies the failure class of an error.
type Code string

const (
	// CodeUnknown covers anything that carries no explicit code, including
	// recovered panics.
	CodeUnknown Code = "unknown"

	// CodeFetchFailed marks a collaborator call (local or remote version
	// lookup) that failed.
	CodeFetchFailed Code = "fetch_failed"
	// CodeParseFailed marks a remote payload that is not valid JSON or does
	// not have the version-info shape.
	CodeParseFailed Code = "parse_failed"

	CodeConfigurationError Code = "configuration_error"
	CodeStoreFailed        Code = "store_failed"
)

// Error pairs a machine-readable code with a message and an optional cause.
type Error struct {
	Code    Code
	Message string
	Err     error
}

// Error implements the error interface.
func (e Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	}
	return string(e.Code)
}

// Unwrap returns the wrapped error.
func (e Error) Unwrap() error {
	return e.Err
}

// New wraps an error with a code/message.
func New(code Code, msg string, err error) Error {
	return Error{Code: code, Message: msg, Err: err}
}

// Wrap attaches code to err unless the chain already carries a code, in
// which case err is returned untouched. A nil err stays nil.
func Wrap(code Code, msg string, err error) error {
	if err == nil {
		return nil
	}
	var structured Error
	if errors.As(err, &structured) {
		return err
	}
	return New(code, msg, err)
}

// CodeOf walks the error chain and returns the first structured code found.
func CodeOf(err error) Code {
	var structured Error
	if errors.As(err, &structured) {
		return structured.Code
	}
	return CodeUnknown
}

// IsCode reports whether the error (or its unwrap chain) matches the provided code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
