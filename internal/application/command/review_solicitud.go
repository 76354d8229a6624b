package command

import (
	"context"
	"fmt"

	"github.com/fesc-practicas/practicas-hub/internal/domain/autorizacion"
	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REVIEW SOLICITUD COMMANDS
// beginReview moves the request to en_revision; decide writes the terminal
// verdict; updateNotes edits the director's notes without touching state.
// Once terminal, a request never transitions again.
// ══════════════════════════════════════════════════════════════════════════════

// BeginReviewCommand takes a request for review.
type BeginReviewCommand struct {
	SolicitudID string
	Actor       shared.Principal
}

// DecideSolicitudCommand writes the final verdict.
type DecideSolicitudCommand struct {
	SolicitudID string
	Actor       shared.Principal
	Decision    string // "aprobada" | "rechazada"
	Notas       string
}

// UpdateNotasCommand edits the director's notes.
type UpdateNotasCommand struct {
	SolicitudID string
	Actor       shared.Principal
	Notas       string
}

// ReviewSolicitudResult reports the resulting state.
type ReviewSolicitudResult struct {
	SolicitudID string
	Estado      string
}

// ReviewSolicitudHandler handles the three review commands.
type ReviewSolicitudHandler struct {
	repo      empresa.Repository
	publisher shared.EventPublisher
}

// NewReviewSolicitudHandler creates a new handler.
func NewReviewSolicitudHandler(repo empresa.Repository, publisher shared.EventPublisher) *ReviewSolicitudHandler {
	return &ReviewSolicitudHandler{repo: repo, publisher: publisher}
}

// HandleBeginReview executes BeginReviewCommand.
func (h *ReviewSolicitudHandler) HandleBeginReview(ctx context.Context, cmd BeginReviewCommand) (*ReviewSolicitudResult, error) {
	s, err := h.repo.GetByID(ctx, cmd.SolicitudID)
	if err != nil {
		return nil, err
	}

	from := s.Estado.String()
	if err := autorizacion.Check(cmd.Actor.Rol, autorizacion.PipelineSolicitud,
		from, empresa.EstadoEnRevision.String()); err != nil {
		return nil, err
	}

	if err := s.IniciarRevision(cmd.Actor.SubjectID); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("begin_review: %w", err)
	}

	h.publish(shared.NewEstadoCambiadoEvent(shared.EventRevisionIniciada, s.ID,
		"solicitud", from, s.Estado.String(), cmd.Actor.SubjectID))

	return &ReviewSolicitudResult{SolicitudID: s.ID, Estado: s.Estado.String()}, nil
}

// HandleDecide executes DecideSolicitudCommand.
func (h *ReviewSolicitudHandler) HandleDecide(ctx context.Context, cmd DecideSolicitudCommand) (*ReviewSolicitudResult, error) {
	decision := empresa.Estado(cmd.Decision)
	if decision != empresa.EstadoAprobada && decision != empresa.EstadoRechazada {
		return nil, empresa.ErrDecisionInvalida
	}

	s, err := h.repo.GetByID(ctx, cmd.SolicitudID)
	if err != nil {
		return nil, err
	}

	from := s.Estado.String()
	if err := autorizacion.Check(cmd.Actor.Rol, autorizacion.PipelineSolicitud,
		from, decision.String()); err != nil {
		return nil, err
	}

	if err := s.Decidir(decision, cmd.Actor.SubjectID, cmd.Notas); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("decide_solicitud: %w", err)
	}

	h.publish(shared.NewEstadoCambiadoEvent(shared.EventSolicitudDecidida, s.ID,
		"solicitud", from, s.Estado.String(), cmd.Actor.SubjectID))

	return &ReviewSolicitudResult{SolicitudID: s.ID, Estado: s.Estado.String()}, nil
}

// HandleUpdateNotas executes UpdateNotasCommand. Notes are writable by any
// staff role in any non-terminal state; the state itself never changes.
func (h *ReviewSolicitudHandler) HandleUpdateNotas(ctx context.Context, cmd UpdateNotasCommand) (*ReviewSolicitudResult, error) {
	if !cmd.Actor.Rol.IsStaff() {
		return nil, shared.NewDomainError("solicitud", "UpdateNotas", shared.ErrForbidden,
			"only staff can edit director notes")
	}

	s, err := h.repo.GetByID(ctx, cmd.SolicitudID)
	if err != nil {
		return nil, err
	}

	if err := s.ActualizarNotas(cmd.Notas); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, s); err != nil {
		return nil, fmt.Errorf("update_notas: %w", err)
	}

	h.publish(shared.NewBaseEvent(shared.EventNotasActualizadas, s.ID))

	return &ReviewSolicitudResult{SolicitudID: s.ID, Estado: s.Estado.String()}, nil
}

func (h *ReviewSolicitudHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
