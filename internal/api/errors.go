// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"errors"
	"strconv"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ErrorKind categorizes client errors for handling.
type ErrorKind int

const (
	// KindTransport means the request could not complete.
	KindTransport ErrorKind = iota
	// KindProtocol means a non-2xx status or an unparseable body.
	KindProtocol
	// KindApplication means the server answered success=false.
	KindApplication
)

// String returns the kind name used in logs.
func (k ErrorKind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindProtocol:
		return "protocol"
	case KindApplication:
		return "application"
	default:
		return "unknown"
	}
}

// InvalidJSONMessage is the message of a protocol error caused by a 2xx body
// that is not JSON.
const InvalidJSONMessage = "Invalid JSON response from server."

// Error represents a failed API call.
type Error struct {
	Kind ErrorKind
	// Op is the operation name, e.g. "send-message".
	Op string
	// Message is the server-supplied text for application errors and a
	// human-readable summary otherwise. May be empty for application errors.
	Message string
	// StatusCode is the HTTP status, zero for transport errors.
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.String() + " error"
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Detail returns the most specific human-readable description of the
// failure: the cause for transport errors, the message otherwise.
func (e *Error) Detail() string {
	if e.Kind == KindTransport && e.Cause != nil {
		return e.Cause.Error()
	}
	return e.Message
}

// Sentinel causes for locally detected upload failures.
var (
	ErrDocumentTooLarge = errors.New("document exceeds the upload size limit")
	ErrNoDocument       = errors.New("no document selected")
)

func transportError(op string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: "request failed", Cause: cause}
}

func statusError(op string, code int) *Error {
	return &Error{
		Kind:       KindProtocol,
		Op:         op,
		Message:    "Server error: " + strconv.Itoa(code),
		StatusCode: code,
	}
}

func decodeError(op string, code int, cause error) *Error {
	return &Error{
		Kind:       KindProtocol,
		Op:         op,
		Message:    InvalidJSONMessage,
		StatusCode: code,
		Cause:      cause,
	}
}

func applicationError(op string, code int, message string) *Error {
	return &Error{
		Kind:       KindApplication,
		Op:         op,
		Message:    message,
		StatusCode: code,
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsTransport checks if an error is a transport failure.
func IsTransport(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindTransport
}

// IsProtocol checks if an error is a protocol failure.
func IsProtocol(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindProtocol
}

// IsApplication checks if an error is an application failure.
func IsApplication(err error) bool {
	apiErr, ok := AsError(err)
	return ok && apiErr.Kind == KindApplication
}
