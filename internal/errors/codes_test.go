package errors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessageFormat(t *testing.T) {
	plain := SessionNotFound("abc")
	assert.Equal(t, "[SESSION_NOT_FOUND] session not found: abc", plain.Error())

	wrapped := Wrap(context.DeadlineExceeded, ErrCodeTimeout, "llm request timed out")
	assert.Contains(t, wrapped.Error(), "[TIMEOUT]")
	assert.Contains(t, wrapped.Error(), "deadline exceeded")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, ErrCodeLLMUnavailable, "llm request failed")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, ErrCodeLLMUnavailable, err.GetCode())
}

func TestContextCanceledCarriesCause(t *testing.T) {
	err := ContextCanceled(context.Canceled)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ErrCodeContextCanceled, err.Code)
}

func TestIsCode(t *testing.T) {
	err := LLMUnavailable("empty response from llm")

	assert.True(t, IsCode(err, ErrCodeLLMUnavailable))
	assert.False(t, IsCode(err, ErrCodeTimeout))
	assert.False(t, IsCode(errors.New("plain"), ErrCodeLLMUnavailable))
	assert.False(t, IsCode(nil, ErrCodeLLMUnavailable))
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeTimeout,
		GetCodeFromError(Wrap(nil, ErrCodeTimeout, "timed out"), ErrCodeLLMUnavailable))
	assert.Equal(t, ErrCodeLLMUnavailable,
		GetCodeFromError(errors.New("plain"), ErrCodeLLMUnavailable))
}

func TestWithContext(t *testing.T) {
	err := LLMUnavailable("llm request failed").WithContext("model", "gpt-4o-mini")

	require.NotNil(t, err.Context)
	assert.Equal(t, "gpt-4o-mini", err.Context["model"])
}
