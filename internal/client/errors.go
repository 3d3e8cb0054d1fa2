package client

import (
	"errors"
	"fmt"
)

// Kind classifies the recoverable errors of the client and the dispatcher.
type Kind int

const (
	// KindTimeout means no response arrived for a command in time.
	KindTimeout Kind = iota
	// KindUnexpectedResponse means a response arrived with the wrong tag or shape.
	KindUnexpectedResponse
	// KindValidation means a chat command was rejected before execution.
	KindValidation
	// KindExecution means a command handler failed.
	KindExecution
)

// String returns the kind name used in logs.
func (k Kind) String() string {
	switch k {
	case KindTimeout:
		return "timeout"
	case KindUnexpectedResponse:
		return "unexpected_response"
	case KindValidation:
		return "validation"
	case KindExecution:
		return "execution"
	default:
		return "unknown"
	}
}

var (
	// ErrNotConnected is returned when a command is issued before Connect.
	ErrNotConnected = errors.New("client not connected")
	// ErrAlreadyConnected is returned by a second Connect; reconnecting is not supported.
	ErrAlreadyConnected = errors.New("client already connected")
)

// Error is the recoverable error family. Anything that is not an *Error
// (socket failures, programming errors) is treated as fatal by the listen loop.
type Error struct {
	Kind     Kind
	Command  string
	Type     string
	Expected string
	Err      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	switch e.Kind {
	case KindTimeout:
		return fmt.Sprintf("failed to send command: %s", e.Command)
	case KindUnexpectedResponse:
		if e.Err != nil {
			return fmt.Sprintf("unexpected response type: %s (expected: %s): %v", e.Type, e.Expected, e.Err)
		}
		return fmt.Sprintf("unexpected response type: %s (expected: %s)", e.Type, e.Expected)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %s: %v", e.Kind, e.Command, e.Err)
		}
		return fmt.Sprintf("%s: %s", e.Kind, e.Command)
	}
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// TimeoutError reports that cmd received no response.
func TimeoutError(cmd string) *Error {
	return &Error{Kind: KindTimeout, Command: cmd}
}

// UnexpectedResponseError reports a response tag mismatch for cmd.
func UnexpectedResponseError(cmd, got, want string) *Error {
	return &Error{Kind: KindUnexpectedResponse, Command: cmd, Type: got, Expected: want}
}

// IsRecoverable reports whether err belongs to the recoverable family.
func IsRecoverable(err error) bool {
	var e *Error
	return errors.As(err, &e)
}

// IsKind reports whether err is a recoverable error of kind k.
func IsKind(err error, k Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}
