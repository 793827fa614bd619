// Package core provides the error taxonomy shared by the voice pipeline.
//
// Every failure a pipeline component can produce is one of the types below.
// Components return these instead of letting errors escape their async
// boundary; the session orchestrator inspects the type and converts it into
// a state transition. None of them is fatal to the process.
package core

import (
	"errors"
	"fmt"
)

// ErrorType categorizes pipeline failures.
type ErrorType string

const (
	// ErrPermissionDenied means the user or OS denied microphone access.
	ErrPermissionDenied ErrorType = "permission_denied"
	// ErrDeviceUnavailable means no usable audio input device exists.
	ErrDeviceUnavailable ErrorType = "device_unavailable"
	// ErrNotRecording means Stop was called without an active capture.
	ErrNotRecording ErrorType = "not_recording"
	// ErrTranscriptionFailed means the speech-to-text request failed.
	ErrTranscriptionFailed ErrorType = "transcription_failed"
	// ErrAgentUnavailable means the agent request failed or returned no body.
	ErrAgentUnavailable ErrorType = "agent_unavailable"
	// ErrSynthesisFailed means the text-to-speech request or decode failed.
	ErrSynthesisFailed ErrorType = "synthesis_failed"
)

// Error is a tagged pipeline failure.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a tagged error.
func NewError(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// WrapError creates a tagged error with an underlying cause.
func WrapError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause}
}

// IsType reports whether err (or anything it wraps) is a pipeline error of
// the given type.
func IsType(err error, t ErrorType) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Type == t
	}
	return false
}

// TypeOf returns the pipeline error type, or "" when err is not tagged.
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ""
}
