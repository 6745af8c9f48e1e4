// Package apperrors defines the error kinds shared by every subsystem. A
// kind, not a concrete type, decides retry behavior and the operator-facing
// message; the dispatcher is the only place errors are turned into tool
// responses.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies a failure. The string form appears verbatim in tool
// response messages.
type Kind string

const (
	KindUnknown          Kind = ""
	KindConfigLoad       Kind = "ConfigLoadError"
	KindConfigValidation Kind = "ConfigValidationError"
	KindTransport        Kind = "TransportError"
	KindClient           Kind = "ClientError"
	KindServer           Kind = "ServerError"
	KindProtocol         Kind = "ProtocolError"
	KindArgument         Kind = "ArgumentError"
	KindNotFound         Kind = "NotFoundError"
)

// Error carries a kind plus optional HTTP status and cause. Cancelled marks
// transport failures caused by context cancellation, which are never
// retried.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cancelled  bool
	Err        error
}

func (e *Error) Error() string {
	if e.Kind == KindUnknown {
		return e.Message
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so callers can test with
// errors.Is(err, &Error{Kind: KindNotFound}).
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return e.Kind == other.Kind
}

// New builds an error of the given kind with a formatted message.
func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), Err: err}
}

// KindOf extracts the kind, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsRetriable reports whether a retry could help: transport and server
// failures only, and never after cancellation.
func IsRetriable(err error) bool {
	var ae *Error
	if !errors.As(err, &ae) {
		return false
	}
	if ae.Cancelled {
		return false
	}
	return ae.Kind == KindTransport || ae.Kind == KindServer
}

// StatusOf extracts the HTTP status code, or zero when none applies.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
