package dbretry

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRetryableError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		err       error
		retryable bool
	}{
		{name: "nil", err: nil, retryable: false},
		{name: "deadline exceeded", err: context.DeadlineExceeded, retryable: true},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), retryable: true},
		{name: "broken pipe", err: errors.New("write: broken pipe"), retryable: true},
		{name: "connection refused", err: errors.New("dial tcp: connection refused"), retryable: true},
		{name: "io timeout", err: errors.New("read: i/o timeout"), retryable: true},
		{name: "constraint violation", err: errors.New("duplicate key value violates unique constraint"), retryable: false},
		{name: "plain failure", err: errors.New("something else"), retryable: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.retryable, IsRetryableError(tt.err))
		})
	}
}

func TestOperationRetriesTransientErrors(t *testing.T) {
	shortenBackoff(t)

	calls := 0
	result, err := Operation(t.Context(), func(context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("dial tcp: connection refused")
		}
		return "done", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "done", result)
	assert.Equal(t, 3, calls)
}

func TestOperationStopsOnPermanentError(t *testing.T) {
	shortenBackoff(t)

	errBad := errors.New("syntax error at or near")

	calls := 0
	err := NoResult(t.Context(), func(context.Context) error {
		calls++
		return errBad
	})

	require.ErrorIs(t, err, errBad)
	assert.Equal(t, 1, calls)
}

func TestOperationExhaustsRetries(t *testing.T) {
	shortenBackoff(t)

	errDown := errors.New("dial tcp: connection refused")

	calls := 0
	err := NoResult(t.Context(), func(context.Context) error {
		calls++
		return errDown
	})

	require.ErrorIs(t, err, errDown)
	assert.Equal(t, int(maxRetries)+1, calls)
}

// shortenBackoff drops the retry intervals so exhaustion tests finish fast.
func shortenBackoff(t *testing.T) {
	t.Helper()

	origInitial, origMax := initialInterval, maxInterval
	initialInterval = 0
	maxInterval = 0
	t.Cleanup(func() {
		initialInterval = origInitial
		maxInterval = origMax
	})
}
