package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_SucceedsWithoutRetryOnFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultBackoffConfig, func(error) bool { return true }, func(context.Context) error {
		calls++
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_RetriesUntilSuccess(t *testing.T) {
	calls := 0
	cfg := BackoffConfig{MaxRetries: 3, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
	err := Do(context.Background(), cfg, func(error) bool { return true }, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestDo_StopsImmediatelyWhenNotRetryable(t *testing.T) {
	calls := 0
	err := Do(context.Background(), DefaultBackoffConfig, func(error) bool { return false }, func(context.Context) error {
		calls++
		return errors.New("fatal")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestDo_ReturnsLastErrorAfterExhaustingRetries(t *testing.T) {
	cfg := BackoffConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	calls := 0
	err := Do(context.Background(), cfg, func(error) bool { return true }, func(context.Context) error {
		calls++
		return errors.New("still failing")
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls) // initial + 2 retries
}

func TestBackoffDelay_CapsAtMaxDelay(t *testing.T) {
	cfg := BackoffConfig{BaseDelay: time.Second, MaxDelay: 2 * time.Second}
	for attempt := 1; attempt <= 10; attempt++ {
		d := backoffDelay(cfg, attempt)
		assert.LessOrEqual(t, d, cfg.MaxDelay)
		assert.GreaterOrEqual(t, d, time.Duration(0))
	}
}
