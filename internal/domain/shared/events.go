// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Events replace the original UI's global callback hooks:
// state changes are published on the in-process bus and consumed by explicit
// subscribers (today, completion-cache invalidation).
const (
	// Practicante pipeline events
	EventPreinscripcionCreada EventType = "practicante.preinscripcion_creada"
	EventComprobanteSubido    EventType = "practicante.comprobante_subido"
	EventPagoValidado         EventType = "practicante.pago_validado"
	EventPagoRechazado        EventType = "practicante.pago_rechazado"
	EventEstudianteCreado     EventType = "practicante.estudiante_creado"

	// Solicitud de empresa events
	EventSolicitudRecibida EventType = "solicitud.recibida"
	EventRevisionIniciada  EventType = "solicitud.revision_iniciada"
	EventSolicitudDecidida EventType = "solicitud.decidida"
	EventNotasActualizadas EventType = "solicitud.notas_actualizadas"

	// Proceso / recurso events
	EventProcesoCreado        EventType = "proceso.creado"
	EventSeccionActualizada   EventType = "proceso.seccion_actualizada"
	EventAnexoAdjuntado       EventType = "proceso.anexo_adjuntado"
	EventConsultoriaCambiada  EventType = "proceso.consultoria_cambiada"
	EventRecursoActualizado   EventType = "recurso.actualizado"
	EventSeguimientoCreado    EventType = "seguimiento.creado"
	EventSeguimientoEliminado EventType = "seguimiento.eliminado"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type        EventType `json:"type"`
	Timestamp   time.Time `json:"timestamp"`
	AggregateId string    `json:"aggregate_id"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
	}
}

// EstadoCambiadoEvent is emitted for every pipeline transition, carrying the
// traversed edge.
type EstadoCambiadoEvent struct {
	BaseEvent
	Pipeline string `json:"pipeline"`
	From     string `json:"from"`
	To       string `json:"to"`
	Actor    string `json:"actor,omitempty"`
}

// NewEstadoCambiadoEvent creates an EstadoCambiadoEvent for the given edge.
func NewEstadoCambiadoEvent(t EventType, aggregateID, pipeline, from, to, actor string) EstadoCambiadoEvent {
	return EstadoCambiadoEvent{
		BaseEvent: NewBaseEvent(t, aggregateID),
		Pipeline:  pipeline,
		From:      from,
		To:        to,
		Actor:     actor,
	}
}

// RecursoActualizadoEvent is emitted when a resource document changes. The
// ProcesoID lets subscribers invalidate per-proceso read models.
type RecursoActualizadoEvent struct {
	BaseEvent
	ProcesoID string `json:"proceso_id,omitempty"`
	Tipo      string `json:"tipo"`
}

// NewRecursoActualizadoEvent creates a RecursoActualizadoEvent.
func NewRecursoActualizadoEvent(recursoID, procesoID, tipo string) RecursoActualizadoEvent {
	return RecursoActualizadoEvent{
		BaseEvent: NewBaseEvent(EventRecursoActualizado, recursoID),
		ProcesoID: procesoID,
		Tipo:      tipo,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Bus interfaces
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
