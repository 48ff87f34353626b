package errors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandle_AppError(t *testing.T) {
	handler := NewHandler(testLogger(), false)

	userKey, retryable := handler.Handle(context.Background(), NewCatalogError("feed", errors.New("timeout")))

	assert.Equal(t, "errors.catalog_unavailable", userKey)
	assert.True(t, retryable)
}

func TestHandle_WrappedAppError(t *testing.T) {
	handler := NewHandler(testLogger(), false)
	wrapped := fmt.Errorf("searching offers: %w", NewValidationError("bad input"))

	userKey, retryable := handler.Handle(context.Background(), wrapped)

	assert.Equal(t, "errors.invalid_input", userKey)
	assert.False(t, retryable)
}

func TestHandle_UnknownError(t *testing.T) {
	handler := NewHandler(testLogger(), false)

	userKey, retryable := handler.Handle(context.Background(), errors.New("boom"))

	assert.Equal(t, "errors.temporary", userKey)
	assert.False(t, retryable)
}

func TestHandle_NilError(t *testing.T) {
	handler := NewHandler(testLogger(), false)

	userKey, retryable := handler.Handle(context.Background(), nil)

	assert.Empty(t, userKey)
	assert.False(t, retryable)
}

func TestWithRetry_SucceedsAfterRetryableFailures(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		if calls < 3 {
			return NewStorageError(errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetry_StopsOnNonRetryable(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewValidationError("bad input")
	})

	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetry_GivesUpAfterMaxRetries(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), func() error {
		calls++
		return NewStorageError(errors.New("down"))
	})

	assert.Error(t, err)
	assert.Equal(t, MaxRetries+1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStorageError(errors.New("x"))))
	assert.False(t, IsRetryable(NewValidationError("x")))
	assert.False(t, IsRetryable(errors.New("plain")))
	assert.False(t, IsRetryable(nil))
}
