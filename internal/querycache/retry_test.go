package querycache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryLinearBackoff(t *testing.T) {
	var waits []time.Duration
	policy := RetryPolicy{
		Attempts: 3,
		Delay:    time.Second,
		Sleep: func(_ context.Context, d time.Duration) error {
			waits = append(waits, d)
			return nil
		},
	}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, waits)
}

func TestRetryReturnsLastError(t *testing.T) {
	policy := RetryPolicy{
		Attempts: 2,
		Delay:    time.Millisecond,
		Sleep:    func(context.Context, time.Duration) error { return nil },
	}
	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("attempt failed")
	})
	require.EqualError(t, err, "attempt failed")
	require.Equal(t, 2, calls)
}

func TestRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Retry(ctx, 5, time.Hour, func(context.Context) error {
		calls++
		cancel()
		return errors.New("failed once")
	})
	require.EqualError(t, err, "failed once")
	require.Equal(t, 1, calls)
}
