package command

import (
	"context"
	"fmt"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// TOGGLE CONSULTORIA COMMAND
// Flips the consultoría flag of a proceso. The flag only controls whether the
// certificado section is exposed; the certificado resource itself is never
// touched, so toggling twice is lossless.
// ══════════════════════════════════════════════════════════════════════════════

// ToggleConsultoriaCommand identifies the proceso.
type ToggleConsultoriaCommand struct {
	ProcesoID string
	Actor     shared.Principal
}

// ToggleConsultoriaResult reports the new flag value.
type ToggleConsultoriaResult struct {
	ProcesoID     string
	EsConsultoria bool
}

// ToggleConsultoriaHandler handles the ToggleConsultoriaCommand.
type ToggleConsultoriaHandler struct {
	procesos  proceso.Repository
	publisher shared.EventPublisher
}

// NewToggleConsultoriaHandler creates a new handler.
func NewToggleConsultoriaHandler(procesos proceso.Repository, publisher shared.EventPublisher) *ToggleConsultoriaHandler {
	return &ToggleConsultoriaHandler{procesos: procesos, publisher: publisher}
}

// Handle executes the command. Staff only.
func (h *ToggleConsultoriaHandler) Handle(ctx context.Context, cmd ToggleConsultoriaCommand) (*ToggleConsultoriaResult, error) {
	if cmd.ProcesoID == "" {
		return nil, shared.NewDomainError("proceso", "ToggleConsultoria", shared.ErrInvalidID,
			"proceso id is required")
	}
	if !cmd.Actor.Rol.IsStaff() {
		return nil, shared.NewDomainError("proceso", "ToggleConsultoria", shared.ErrForbidden,
			"only staff can toggle consultoría")
	}

	p, err := h.procesos.GetByID(ctx, cmd.ProcesoID)
	if err != nil {
		return nil, err
	}

	valor := p.ToggleConsultoria()

	if err := h.procesos.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("toggle_consultoria: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventConsultoriaCambiada, p.ID))
	}

	return &ToggleConsultoriaResult{ProcesoID: p.ID, EsConsultoria: valor}, nil
}
