package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream down")

func fail(ctx context.Context) error { return errUpstream }
func ok(ctx context.Context) error   { return nil }

func TestCircuitBreaker(t *testing.T) {
	ctx := context.Background()

	t.Run("opens after consecutive failures", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(2))

		assert.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
		assert.Equal(t, StateClosed, cb.State())

		assert.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
		assert.Equal(t, StateOpen, cb.State())

		// Open circuit rejects without calling the function.
		called := false
		err := cb.Execute(ctx, func(ctx context.Context) error {
			called = true
			return nil
		})
		assert.ErrorIs(t, err, ErrCircuitOpen)
		assert.False(t, called)
	})

	t.Run("success resets the failure streak", func(t *testing.T) {
		cb := New("test", WithFailureThreshold(2))

		require.Error(t, cb.Execute(ctx, fail))
		require.NoError(t, cb.Execute(ctx, ok))
		require.Error(t, cb.Execute(ctx, fail))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("recovers through half-open", func(t *testing.T) {
		cb := New("test",
			WithFailureThreshold(1),
			WithSuccessThreshold(2),
			WithTimeout(time.Nanosecond),
			WithMaxHalfOpenRequests(1),
		)

		require.Error(t, cb.Execute(ctx, fail))
		require.Equal(t, StateOpen, cb.State())
		time.Sleep(time.Millisecond)

		// One probe at a time; the freed slot lets the next one through.
		require.NoError(t, cb.Execute(ctx, ok))
		assert.Equal(t, StateHalfOpen, cb.State())
		require.NoError(t, cb.Execute(ctx, ok))
		assert.Equal(t, StateClosed, cb.State())
	})

	t.Run("failure in half-open reopens", func(t *testing.T) {
		cb := New("test",
			WithFailureThreshold(1),
			WithTimeout(time.Nanosecond),
		)

		require.Error(t, cb.Execute(ctx, fail))
		time.Sleep(time.Millisecond)

		assert.ErrorIs(t, cb.Execute(ctx, fail), errUpstream)
		assert.Equal(t, StateOpen, cb.State())
	})

	t.Run("state change callback fires", func(t *testing.T) {
		var transitions []string
		cb := New("test",
			WithFailureThreshold(1),
			WithOnStateChange(func(name string, from, to State) {
				transitions = append(transitions, from.String()+">"+to.String())
			}),
		)

		require.Error(t, cb.Execute(ctx, fail))
		assert.Equal(t, []string{"closed>open"}, transitions)
	})
}
