package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastOpts(extra ...Option) []Option {
	opts := []Option{WithInitialDelay(time.Millisecond), WithMaxDelay(time.Millisecond), WithJitter(0)}
	return append(opts, extra...)
}

func TestDo(t *testing.T) {
	ctx := context.Background()

	t.Run("first attempt succeeds", func(t *testing.T) {
		attempts := 0
		err := New(fastOpts()...).Do(ctx, func(ctx context.Context) error {
			attempts++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("retryable error is retried until success", func(t *testing.T) {
		attempts := 0
		err := New(fastOpts(WithMaxAttempts(3))...).Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts < 3 {
				return Retryable(errors.New("transient"))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, attempts)
	})

	t.Run("plain error returns immediately", func(t *testing.T) {
		attempts := 0
		boom := errors.New("boom")
		err := New(fastOpts(WithMaxAttempts(3))...).Do(ctx, func(ctx context.Context) error {
			attempts++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 1, attempts)
	})

	t.Run("exhausted attempts return the unwrapped error", func(t *testing.T) {
		attempts := 0
		boom := errors.New("still down")
		err := New(fastOpts(WithMaxAttempts(2))...).Do(ctx, func(ctx context.Context) error {
			attempts++
			return Retryable(boom)
		})
		assert.Equal(t, boom, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("RetryIf overrides the retryable check", func(t *testing.T) {
		attempts := 0
		boom := errors.New("conflict")
		err := New(fastOpts(WithMaxAttempts(3), WithRetryIf(func(err error) bool {
			return err.Error() == "conflict"
		}))...).Do(ctx, func(ctx context.Context) error {
			attempts++
			if attempts < 2 {
				return boom
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("cancelled context stops retrying", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		attempts := 0
		err := New(fastOpts(WithMaxAttempts(5))...).Do(cancelled, func(ctx context.Context) error {
			attempts++
			return Retryable(errors.New("transient"))
		})
		require.Error(t, err)
		assert.Zero(t, attempts)
	})
}

func TestDoWithData(t *testing.T) {
	attempts := 0
	got, err := DoWithData(context.Background(), func(ctx context.Context) (string, error) {
		attempts++
		if attempts < 2 {
			return "", Retryable(errors.New("transient"))
		}
		return "listo", nil
	}, fastOpts(WithMaxAttempts(3))...)
	require.NoError(t, err)
	assert.Equal(t, "listo", got)
	assert.Equal(t, 2, attempts)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(Retryable(errors.New("x"))))
	assert.False(t, IsRetryable(errors.New("x")))
	assert.NoError(t, Retryable(nil))
}
