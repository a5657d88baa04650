// Package apperr provides structured error handling with a closed code set
// shared across the session pipeline.
package apperr

import (
	"errors"
	"fmt"
)

// Code identifies an error category in the session taxonomy.
type Code int

const (
	Unknown Code = iota
	Handshake
	Configuration
	ProtocolDecode
	AudioTransfer
	Internal
)

func (c Code) String() string {
	switch c {
	case Handshake:
		return "handshake"
	case Configuration:
		return "configuration"
	case ProtocolDecode:
		return "protocol_decode"
	case AudioTransfer:
		return "audio_transfer"
	case Internal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the base error type with a structured code.
type Error struct {
	Code    Code
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	s := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Cause != nil {
		s += fmt.Sprintf(" caused by: %v", e.Cause)
	}
	return s
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error { return e.Cause }

// New creates a new Error with the given code and message.
func New(code Code, msg string) *Error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a new Error with a formatted message.
func Newf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an existing error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, Cause: err}
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// CodeOf extracts the code from an error chain, or Unknown.
func CodeOf(err error) Code {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return Unknown
}

// IsCode checks if an error chain carries a specific code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}
