// Package eventhandler contains the domain event subscribers. They are the
// reactive side of the system: writes publish events, subscribers keep the
// read models honest.
package eventhandler

import (
	"context"

	"github.com/fesc-practicas/practicas-hub/internal/application/query"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
)

// ═══════════════════════════════════════════════════════════════════════════
// ON RECURSO ACTUALIZADO HANDLER
// Every write that can change a semáforo invalidates the cached completion of
// the affected proceso. Invalidation is best-effort: a failed invalidation is
// logged, never propagated, because postgres stays authoritative and the
// cache entry expires on its own.
// ═══════════════════════════════════════════════════════════════════════════

// OnRecursoActualizadoHandler drops stale completion aggregates from the cache.
type OnRecursoActualizadoHandler struct {
	cache query.CompletionCache
	log   *logger.Logger
}

// NewOnRecursoActualizadoHandler creates a new handler.
func NewOnRecursoActualizadoHandler(cache query.CompletionCache, log *logger.Logger) *OnRecursoActualizadoHandler {
	if log == nil {
		log = logger.Default()
	}
	return &OnRecursoActualizadoHandler{
		cache: cache,
		log:   log.With(logger.Component("eventhandler.recurso_actualizado")),
	}
}

// Register subscribes the handler to every event type that can move a
// semáforo or change which sections a proceso exposes.
func (h *OnRecursoActualizadoHandler) Register(bus shared.EventSubscriber) error {
	for _, t := range []shared.EventType{
		shared.EventRecursoActualizado,
		shared.EventSeccionActualizada,
		shared.EventAnexoAdjuntado,
		shared.EventConsultoriaCambiada,
	} {
		if err := bus.Subscribe(t, h.Handle); err != nil {
			return err
		}
	}
	return nil
}

// Handle implements shared.EventHandler.
func (h *OnRecursoActualizadoHandler) Handle(event shared.Event) error {
	procesoID := procesoIDDe(event)
	if procesoID == "" {
		// A resource review outside any proceso context; nothing cached under
		// its id, nothing to invalidate.
		return nil
	}

	if err := h.cache.Invalidate(context.Background(), procesoID); err != nil {
		h.log.Warn("completion cache invalidation failed",
			logger.String("proceso_id", procesoID),
			logger.String("event_type", string(event.EventType())),
			logger.Err(err),
		)
	}
	return nil
}

// procesoIDDe extracts the proceso id carried by the event. Resource events
// carry it explicitly; the proceso-level events carry it as aggregate id.
func procesoIDDe(event shared.Event) string {
	if e, ok := event.(shared.RecursoActualizadoEvent); ok {
		return e.ProcesoID
	}
	return event.AggregateID()
}
