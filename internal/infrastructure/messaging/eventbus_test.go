package messaging

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
)

func syncBus() *InMemoryEventBus {
	return NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: false, EnableMetrics: true})
}

func TestInMemoryEventBusPublish(t *testing.T) {
	t.Run("delivers to typed and global handlers", func(t *testing.T) {
		bus := syncBus()

		var typed, global int
		require.NoError(t, bus.Subscribe(shared.EventProcesoCreado, func(shared.Event) error {
			typed++
			return nil
		}))
		require.NoError(t, bus.SubscribeAll(func(shared.Event) error {
			global++
			return nil
		}))

		require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventProcesoCreado, "proc-1")))
		require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventPagoValidado, "prac-1")))

		assert.Equal(t, 1, typed)
		assert.Equal(t, 2, global)
	})

	t.Run("handler errors do not fail the publish", func(t *testing.T) {
		bus := syncBus()

		require.NoError(t, bus.Subscribe(shared.EventProcesoCreado, func(shared.Event) error {
			return errors.New("boom")
		}))

		assert.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventProcesoCreado, "proc-1")))

		snap := bus.Metrics().Snapshot()
		assert.Equal(t, int64(1), snap.TotalHandlerExecs)
		assert.Equal(t, 0.0, snap.HandlerSuccessRate)
	})

	t.Run("closed bus rejects everything", func(t *testing.T) {
		bus := syncBus()
		require.NoError(t, bus.Close())

		assert.ErrorIs(t, bus.Publish(shared.NewBaseEvent(shared.EventProcesoCreado, "x")), ErrEventBusClosed)
		assert.ErrorIs(t, bus.Subscribe(shared.EventProcesoCreado, func(shared.Event) error { return nil }), ErrEventBusClosed)
	})

	t.Run("async mode drains handlers on close", func(t *testing.T) {
		bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2})

		var mu sync.Mutex
		seen := 0
		require.NoError(t, bus.Subscribe(shared.EventProcesoCreado, func(shared.Event) error {
			mu.Lock()
			seen++
			mu.Unlock()
			return nil
		}))

		for i := 0; i < 5; i++ {
			require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventProcesoCreado, "proc-1")))
		}
		require.NoError(t, bus.Close())

		mu.Lock()
		defer mu.Unlock()
		assert.Equal(t, 5, seen)
	})
}

func TestDispatcher(t *testing.T) {
	newDispatcher := func(bus shared.EventBus) *Dispatcher {
		cfg := DefaultDispatcherConfig(bus)
		cfg.RetryConfig.InitialBackoff = time.Millisecond
		cfg.RetryConfig.MaxBackoff = 2 * time.Millisecond
		return NewDispatcher(cfg)
	}

	t.Run("retries until the handler succeeds", func(t *testing.T) {
		bus := syncBus()
		d := newDispatcher(bus)
		require.NoError(t, d.Start())

		attempts := 0
		require.NoError(t, d.Subscribe(shared.EventRecursoActualizado, func(shared.Event) error {
			attempts++
			if attempts < 3 {
				return errors.New("transient")
			}
			return nil
		}))

		require.NoError(t, bus.Publish(shared.NewRecursoActualizadoEvent("rec-1", "proc-1", "arl")))

		assert.Equal(t, 3, attempts)
		assert.Equal(t, 0, d.DeadLetters().Size())
	})

	t.Run("exhausted retries land in the dead letter queue", func(t *testing.T) {
		bus := syncBus()
		d := newDispatcher(bus)
		require.NoError(t, d.Start())

		require.NoError(t, d.Subscribe(shared.EventRecursoActualizado, func(shared.Event) error {
			return errors.New("permanent")
		}))

		// The bus swallows handler errors; the DLQ is where failures surface.
		require.NoError(t, bus.Publish(shared.NewRecursoActualizadoEvent("rec-1", "proc-1", "arl")))

		require.Equal(t, 1, d.DeadLetters().Size())
		entry, ok := d.DeadLetters().Pop()
		require.True(t, ok)
		assert.Equal(t, shared.EventRecursoActualizado, entry.Event.EventType())
		assert.Equal(t, 4, entry.Attempts)
	})

	t.Run("recovery middleware turns panics into errors", func(t *testing.T) {
		bus := syncBus()
		d := newDispatcher(bus)
		d.Use(RecoveryMiddleware(logger.Default()))

		require.NoError(t, d.Subscribe(shared.EventProcesoCreado, func(shared.Event) error {
			panic("bad handler")
		}))

		err := d.Dispatch(shared.NewBaseEvent(shared.EventProcesoCreado, "proc-1"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "panic")
	})
}
