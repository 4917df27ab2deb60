package errors

import (
	"fmt"
)

// ErrorCode represents a specific failure class of the assistant.
type ErrorCode string

// Conversational problems (ambiguous references, business-rule rejections,
// unresolvable conflicts) are not errors here; they come back as formatted
// replies. The codes below cover the paths that genuinely fail.
const (
	// ErrCodeSessionNotFound indicates the session ID is unknown.
	ErrCodeSessionNotFound ErrorCode = "SESSION_NOT_FOUND"
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeLLMUnavailable indicates the LLM extraction service is not available.
	ErrCodeLLMUnavailable ErrorCode = "LLM_UNAVAILABLE"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AssistantError represents a structured error for assistant operations.
type AssistantError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]any
}

// Error implements the error interface.
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

// WithContext adds context to the error.
func (e *AssistantError) WithContext(key string, value any) *AssistantError {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// GetCode returns the error code.
func (e *AssistantError) GetCode() ErrorCode {
	return e.Code
}

// Convenience constructors for common error types.

// SessionNotFound creates a session not found error.
func SessionNotFound(sessionID string) *AssistantError {
	return &AssistantError{
		Code:    ErrCodeSessionNotFound,
		Message: fmt.Sprintf("session not found: %s", sessionID),
	}
}

// LLMUnavailable creates an LLM unavailable error.
func LLMUnavailable(msg string) *AssistantError {
	return &AssistantError{Code: ErrCodeLLMUnavailable, Message: msg}
}

// ContextCanceled creates a context canceled error.
func ContextCanceled(cause error) *AssistantError {
	return &AssistantError{Code: ErrCodeContextCanceled, Message: "operation canceled", Cause: cause}
}

// Wrap wraps an existing error with a code and message.
func Wrap(cause error, code ErrorCode, msg string) *AssistantError {
	return &AssistantError{Code: code, Message: msg, Cause: cause}
}

// IsCode checks if an error is of a specific code.
func IsCode(err error, code ErrorCode) bool {
	if aerr, ok := err.(*AssistantError); ok {
		return aerr.Code == code
	}
	return false
}

// GetCodeFromError extracts the error code from any error.
// Returns the provided default code if the error is not an AssistantError.
func GetCodeFromError(err error, defaultCode ErrorCode) ErrorCode {
	if aerr, ok := err.(*AssistantError); ok {
		return aerr.Code
	}
	return defaultCode
}
