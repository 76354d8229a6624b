package eventhandler

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/application/query"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

type fakeCache struct {
	invalidated []string
	failWith    error
}

func (c *fakeCache) Get(context.Context, string) (*query.CompletionDTO, bool) { return nil, false }

func (c *fakeCache) Set(context.Context, string, *query.CompletionDTO) error { return nil }

func (c *fakeCache) Invalidate(_ context.Context, procesoID string) error {
	if c.failWith != nil {
		return c.failWith
	}
	c.invalidated = append(c.invalidated, procesoID)
	return nil
}

type fakeSubscriber struct {
	subs map[shared.EventType]shared.EventHandler
}

func (s *fakeSubscriber) Subscribe(t shared.EventType, h shared.EventHandler) error {
	if s.subs == nil {
		s.subs = make(map[shared.EventType]shared.EventHandler)
	}
	s.subs[t] = h
	return nil
}

func (s *fakeSubscriber) SubscribeAll(shared.EventHandler) error { return nil }

func TestOnRecursoActualizado(t *testing.T) {
	t.Run("invalidates the proceso carried by the resource event", func(t *testing.T) {
		cache := &fakeCache{}
		h := NewOnRecursoActualizadoHandler(cache, nil)

		err := h.Handle(shared.NewRecursoActualizadoEvent("rec-1", "proc-1", "arl"))
		require.NoError(t, err)
		assert.Equal(t, []string{"proc-1"}, cache.invalidated)
	})

	t.Run("proceso-level events use the aggregate id", func(t *testing.T) {
		cache := &fakeCache{}
		h := NewOnRecursoActualizadoHandler(cache, nil)

		err := h.Handle(shared.NewBaseEvent(shared.EventConsultoriaCambiada, "proc-7"))
		require.NoError(t, err)
		assert.Equal(t, []string{"proc-7"}, cache.invalidated)
	})

	t.Run("resource events without a proceso are ignored", func(t *testing.T) {
		cache := &fakeCache{}
		h := NewOnRecursoActualizadoHandler(cache, nil)

		err := h.Handle(shared.NewRecursoActualizadoEvent("rec-1", "", "seguimiento"))
		require.NoError(t, err)
		assert.Empty(t, cache.invalidated)
	})

	t.Run("cache failures are swallowed", func(t *testing.T) {
		cache := &fakeCache{failWith: errors.New("redis down")}
		h := NewOnRecursoActualizadoHandler(cache, nil)

		err := h.Handle(shared.NewRecursoActualizadoEvent("rec-1", "proc-1", "arl"))
		assert.NoError(t, err)
	})

	t.Run("registers every semaforo-moving event type", func(t *testing.T) {
		bus := &fakeSubscriber{}
		h := NewOnRecursoActualizadoHandler(&fakeCache{}, nil)
		require.NoError(t, h.Register(bus))

		for _, et := range []shared.EventType{
			shared.EventRecursoActualizado,
			shared.EventSeccionActualizada,
			shared.EventAnexoAdjuntado,
			shared.EventConsultoriaCambiada,
		} {
			assert.Contains(t, bus.subs, et)
		}
	})
}
