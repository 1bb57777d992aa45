package common

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsInputError(t *testing.T) {
	tests := []struct {
		err  error
		name string
		want bool
	}{
		{name: "empty description", err: ErrEmptyDescription, want: true},
		{name: "wrapped question", err: fmt.Errorf("followup: %w", ErrEmptyQuestion), want: true},
		{name: "disabled", err: ErrFollowUpDisabled, want: true},
		{name: "upstream", err: UpstreamError("openai", errors.New("boom")), want: false},
		{name: "nil", err: nil, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsInputError(tt.err))
		})
	}
}

func TestUpstreamError(t *testing.T) {
	cause := errors.New("connection refused")
	err := UpstreamError("pinecone", cause)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUpstream)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "pinecone")
	assert.NoError(t, UpstreamError("pinecone", nil))
}

func TestUserError(t *testing.T) {
	err := NewUserError("Could not reach the ruling index", ErrUpstream)
	assert.Equal(t, "Could not reach the ruling index: upstream service error", err.Error())
	assert.ErrorIs(t, err, ErrUpstream)

	var userErr *UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "Could not reach the ruling index", userErr.UserMessage)
}

func TestWithRetry(t *testing.T) {
	t.Run("single attempt does not retry", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return ErrUpstream
		}, RetryOptions{MaxAttempts: 1})

		assert.ErrorIs(t, err, ErrUpstream)
		assert.NotErrorIs(t, err, ErrMaxRetries)
		assert.Equal(t, 1, calls)
	})

	t.Run("retries until success", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return ErrUpstream
			}
			return nil
		}, RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("non retryable stops early", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: ErrMalformedOutput, Retryable: false}
		}, RetryOptions{MaxAttempts: 5, InitialDelay: time.Millisecond})

		assert.ErrorIs(t, err, ErrMalformedOutput)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausted", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error {
			return ErrUpstream
		}, RetryOptions{MaxAttempts: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond})

		assert.ErrorIs(t, err, ErrMaxRetries)
		assert.ErrorIs(t, err, ErrUpstream)
	})
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, ParseLevel("warn"), "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("shown", "ruling", "N300001")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"ruling":"N300001"`)

	_, err = NewLogger(&buf, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
