package common

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errTransient = errors.New("transient")

func fastRetry(attempts int) RetryOptions {
	return RetryOptions{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     2 * time.Millisecond,
	}
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		err       error
		attempts  int
		wantCalls int
		wantErr   error
	}{
		{name: "first try", failures: 0, err: errTransient, attempts: 3, wantCalls: 1},
		{name: "recovers", failures: 2, err: errTransient, attempts: 3, wantCalls: 3},
		{name: "exhausted", failures: 5, err: errTransient, attempts: 3, wantCalls: 3, wantErr: ErrMaxRetries},
		{
			name:      "not retryable",
			failures:  5,
			err:       &RetryableError{Err: ErrNotFound, Retryable: false},
			attempts:  3,
			wantCalls: 1,
			wantErr:   ErrNotFound,
		},
		{name: "rate limited", failures: 1, err: ErrRateLimit, attempts: 2, wantCalls: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithRetry(context.Background(), fastRetry(tt.attempts), func(context.Context) error {
				calls++
				if calls <= tt.failures {
					return tt.err
				}
				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestWithRetry_ExhaustedKeepsCause(t *testing.T) {
	err := WithRetry(context.Background(), fastRetry(2), func(context.Context) error {
		return errTransient
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 attempts: transient")
}

func TestWithRetry_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	opts := RetryOptions{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour}

	calls := 0
	err := WithRetry(ctx, opts, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&RetryableError{Err: errTransient, Retryable: true}))
	assert.False(t, IsRetryable(&RetryableError{Err: errTransient, Retryable: false}))
	assert.False(t, IsRetryable(errTransient))
}
