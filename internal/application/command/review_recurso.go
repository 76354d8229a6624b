package command

import (
	"context"
	"fmt"

	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW RECURSO COMMAND
// Staff review of a delivered document: grade it, validate it or reject it.
// The resource's verification state is orthogonal to the parent pipeline, so
// no transition gate applies here, only the staff check.
// ══════════════════════════════════════════════════════════════════════════════

// RecursoAction is the reviewer's action on a resource.
type RecursoAction string

const (
	RecursoCalificar RecursoAction = "calificar"
	RecursoValidar   RecursoAction = "validar"
	RecursoRechazar  RecursoAction = "rechazar"
)

// ReviewRecursoCommand contains the review payload.
type ReviewRecursoCommand struct {
	RecursoID        string
	Actor            shared.Principal
	Action           RecursoAction
	Nota             *float64
	NotasAdicionales string
}

// Validate validates the command.
func (c ReviewRecursoCommand) Validate() error {
	if c.RecursoID == "" {
		return shared.NewDomainError("recurso", "Review", shared.ErrInvalidID,
			"recurso id is required")
	}
	switch c.Action {
	case RecursoCalificar, RecursoValidar, RecursoRechazar:
		return nil
	default:
		return shared.NewDomainError("recurso", "Review", shared.ErrInvalidInput,
			"action must be calificar, validar or rechazar")
	}
}

// ReviewRecursoResult reports the resulting verification state.
type ReviewRecursoResult struct {
	RecursoID string
	Estado    string
	Semaforo  string
}

// ReviewRecursoHandler handles the ReviewRecursoCommand.
type ReviewRecursoHandler struct {
	recursos  recurso.Repository
	publisher shared.EventPublisher
}

// NewReviewRecursoHandler creates a new handler.
func NewReviewRecursoHandler(recursos recurso.Repository, publisher shared.EventPublisher) *ReviewRecursoHandler {
	return &ReviewRecursoHandler{recursos: recursos, publisher: publisher}
}

// Handle executes the command.
func (h *ReviewRecursoHandler) Handle(ctx context.Context, cmd ReviewRecursoCommand) (*ReviewRecursoResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Actor.Rol.IsStaff() {
		return nil, shared.NewDomainError("recurso", "Review", shared.ErrForbidden,
			"only staff can review recursos")
	}

	r, err := h.recursos.GetByID(ctx, cmd.RecursoID)
	if err != nil {
		return nil, err
	}

	switch cmd.Action {
	case RecursoCalificar:
		if err := r.Calificar(cmd.Nota, cmd.NotasAdicionales); err != nil {
			return nil, err
		}
	case RecursoValidar:
		r.Validar()
	case RecursoRechazar:
		r.Rechazar(cmd.NotasAdicionales)
	}

	if err := h.recursos.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("review_recurso: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewRecursoActualizadoEvent(r.ID, "", r.Tipo.String()))
	}

	return &ReviewRecursoResult{
		RecursoID: r.ID,
		Estado:    string(r.Estado),
		Semaforo:  string(r.Clasificar()),
	}, nil
}
