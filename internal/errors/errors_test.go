package errors

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestAppError_WrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	err := NewConnectionError("redis", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "E100", err.Code)
	assert.True(t, err.Retryable)
	assert.Equal(t, SeverityHigh, err.Severity)
	assert.Contains(t, err.Error(), "redis")
}

func TestErrorCodes(t *testing.T) {
	assert.Equal(t, "E200", NewAuthenticationError(nil).Code)
	assert.Equal(t, "E300", NewRateLimitError(5).Code)
	assert.Equal(t, "E400", NewCircuitOpenError("telegram", nil).Code)
	assert.Equal(t, "E500", NewRetryExhaustedError("send message", nil).Code)
}

func TestRateLimitError_IncludesRetryHint(t *testing.T) {
	err := NewRateLimitError(7)

	assert.Contains(t, err.Message, "7 seconds")
	assert.Contains(t, err.UserMessage, "7")
	assert.True(t, err.Retryable)
	assert.Equal(t, SeverityLow, err.Severity)
}

func TestRetryExhaustedError_NotRetryable(t *testing.T) {
	err := NewRetryExhaustedError("send message", errors.New("timeout"))
	assert.False(t, err.Retryable)
}

func TestHandler_ReturnsUserMessage(t *testing.T) {
	h := NewHandler(testLogger(), false)

	appErr := NewRateLimitError(5)
	message, retryable := h.Handle(context.Background(), appErr)

	assert.Equal(t, appErr.UserMessage, message)
	assert.True(t, retryable)
}

func TestHandler_UnknownErrorGetsFallback(t *testing.T) {
	h := NewHandler(testLogger(), false)

	message, retryable := h.Handle(context.Background(), errors.New("surprise"))

	assert.Equal(t, fallbackUserMessage, message)
	assert.False(t, retryable)
}

func TestHandler_NilError(t *testing.T) {
	h := NewHandler(testLogger(), false)

	message, retryable := h.Handle(context.Background(), nil)

	assert.Empty(t, message)
	assert.False(t, retryable)
}

func TestHandler_UnwrapsNestedAppError(t *testing.T) {
	h := NewHandler(testLogger(), false)

	inner := NewCircuitOpenError("whatsapp", nil)
	wrapped := errors.Join(errors.New("dispatch failed"), inner)

	message, retryable := h.Handle(context.Background(), wrapped)

	require.Equal(t, inner.UserMessage, message)
	assert.True(t, retryable)
}
