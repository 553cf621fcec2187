package model

import (
	"errors"
	"fmt"
)

// Code distinguishes the failure classes that propagate to callers.
// Partial data is deliberately not a code: a summary built from a subset of
// source tables is still a success and carries PartialData on the result.
type Code string

const (
	CodeInvalidInput Code = "INVALID_INPUT"
	CodeNotFound     Code = "NOT_FOUND"
	CodeUpstream     Code = "UPSTREAM_ERROR"
)

// Error is a coded failure suitable for structured output.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInputf reports an out-of-range or malformed parameter.
func InvalidInputf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// NotFoundf reports an identifier that resolves to nothing on the backend.
func NotFoundf(format string, args ...interface{}) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// Upstreamf wraps a fatal backend failure.
func Upstreamf(err error, format string, args ...interface{}) *Error {
	return &Error{Code: CodeUpstream, Message: fmt.Sprintf(format, args...), Err: err}
}

// CodeOf extracts the failure code from an error chain, or "" when the error
// carries no code.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}
