// Package errors defines the structured error taxonomy for assistant
// operations.
package errors

import (
	"fmt"
)

// ErrorCode classifies an assistant failure.
type ErrorCode string

const (
	// ErrCodeUnauthenticated indicates a missing or invalid identity. Fatal
	// for the turn; nothing may be persisted.
	ErrCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"
	// ErrCodeDeviceUnavailable indicates the microphone or speaker could not
	// be opened.
	ErrCodeDeviceUnavailable ErrorCode = "DEVICE_UNAVAILABLE"
	// ErrCodeTranscriptionTimeout indicates the transcription job exceeded
	// its polling budget.
	ErrCodeTranscriptionTimeout ErrorCode = "TRANSCRIPTION_TIMEOUT"
	// ErrCodeTranscriptionFailed indicates the provider rejected or failed
	// the transcription.
	ErrCodeTranscriptionFailed ErrorCode = "TRANSCRIPTION_FAILED"
	// ErrCodeEmbeddingUnavailable indicates memory retrieval was skipped
	// because the embedding provider failed. Non-fatal.
	ErrCodeEmbeddingUnavailable ErrorCode = "EMBEDDING_UNAVAILABLE"
	// ErrCodeInterpreterUnavailable indicates the chat model could not be
	// reached.
	ErrCodeInterpreterUnavailable ErrorCode = "INTERPRETER_UNAVAILABLE"
	// ErrCodeInterpreterMalformedOutput indicates the model produced a tool
	// call we could not parse. Recovered by the task-capture fallback.
	ErrCodeInterpreterMalformedOutput ErrorCode = "INTERPRETER_MALFORMED_OUTPUT"
	// ErrCodeActionFailed indicates a requested action could not be
	// persisted. Non-fatal; the reply still reaches the user.
	ErrCodeActionFailed ErrorCode = "ACTION_FAILED"
	// ErrCodeTextTooLong indicates synthesis input over the provider limit.
	ErrCodeTextTooLong ErrorCode = "TEXT_TOO_LONG"
	// ErrCodeBusy indicates a turn was rejected because another turn is in
	// progress.
	ErrCodeBusy ErrorCode = "BUSY"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeRateLimitExceeded indicates the per-user rate limit was hit.
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"
)

// AssistantError is a structured error carrying a taxonomy code.
type AssistantError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

func (e *AssistantError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AssistantError) Unwrap() error {
	return e.Cause
}

// Unauthenticated creates an unauthenticated error.
func Unauthenticated(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeUnauthenticated, Message: msg}
}

// DeviceUnavailable creates a device unavailable error.
func DeviceUnavailable(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeDeviceUnavailable, Message: "audio device unavailable", Cause: cause}
}

// TranscriptionTimeout creates a transcription timeout error.
func TranscriptionTimeout(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeTranscriptionTimeout, Message: "transcription timed out", Cause: cause}
}

// TranscriptionFailed creates a transcription failed error.
func TranscriptionFailed(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeTranscriptionFailed, Message: "transcription failed", Cause: cause}
}

// EmbeddingUnavailable creates an embedding unavailable error.
func EmbeddingUnavailable(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeEmbeddingUnavailable, Message: "memory retrieval skipped", Cause: cause}
}

// InterpreterUnavailable creates an interpreter unavailable error.
func InterpreterUnavailable(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeInterpreterUnavailable, Message: "interpreter unavailable", Cause: cause}
}

// ActionFailed creates an action failed error.
func ActionFailed(action string, cause error) *AssistantError {
	return &AssistantError{
		Code:    ErrCodeActionFailed,
		Message: fmt.Sprintf("action %s failed", action),
		Cause:   cause,
	}
}

// TextTooLong creates a text too long error.
func TextTooLong(length int) *AssistantError {
	return &AssistantError{
		Code:    ErrCodeTextTooLong,
		Message: fmt.Sprintf("synthesis input of %d characters exceeds limit", length),
	}
}

// Busy creates a busy error.
func Busy() *AssistantError {
	return &AssistantError{Code: ErrCodeBusy, Message: "another turn is in progress"}
}

// InvalidArgument creates an invalid argument error.
func InvalidArgument(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeInvalidArgument, Message: msg}
}

// RateLimitExceeded creates a rate limit exceeded error.
func RateLimitExceeded(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeRateLimitExceeded, Message: msg}
}
