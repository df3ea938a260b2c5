package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestRetry_SucceedsAfterTransientErrors(t *testing.T) {
	calls := 0
	got, err := Retry(context.Background(), fastPolicy(3), "test.op", func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("connection reset")
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestRetry_GivesUp(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(3), "test.op", func(context.Context) (int, error) {
		calls++
		return 0, &APIError{Provider: ProviderGemini, StatusCode: http.StatusBadGateway}
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.Contains(t, err.Error(), "after 3 attempt(s)")

	var apiErr *APIError
	assert.ErrorAs(t, err, &apiErr)
}

func TestRetry_PermanentError(t *testing.T) {
	calls := 0
	_, err := Retry(context.Background(), fastPolicy(5), "test.op", func(context.Context) (int, error) {
		calls++
		return 0, &APIError{Provider: ProviderTavily, StatusCode: http.StatusBadRequest, Body: "bad query"}
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Contains(t, err.Error(), "bad query")
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := RetryPolicy{MaxAttempts: 10, BaseDelay: time.Hour}

	calls := 0
	_, err := Retry(ctx, policy, "test.op", func(context.Context) (int, error) {
		calls++
		cancel()
		return 0, errors.New("timeout")
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("eof"), true},
		{&APIError{StatusCode: 500}, true},
		{&APIError{StatusCode: 429}, true},
		{&APIError{StatusCode: 408}, true},
		{&APIError{StatusCode: 404}, false},
		{fmt.Errorf("wrapped: %w", &APIError{StatusCode: 403}), false},
		{fmt.Errorf("auth: %w", ErrUnauthorized), false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsRetryable(tt.err), "%v", tt.err)
	}
}
