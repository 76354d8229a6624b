package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ATTACH ANEXO COMMAND
// Creates an anexo resource and appends its reference to the proceso in one
// storage transaction. Without the transaction a crash between the two writes
// would leave an unreferenced resource behind; the aggregation tolerates that
// (missing ids degrade to rojo) but the attacher avoids it in the first place.
// ══════════════════════════════════════════════════════════════════════════════

// AnexoAttacher persists the new resource and the updated proceso atomically.
type AnexoAttacher interface {
	CrearYVincular(ctx context.Context, p *proceso.ProcesoPracticas, r *recurso.Recurso) error
}

// AttachAnexoCommand contains the anexo data.
type AttachAnexoCommand struct {
	ProcesoID   string
	Actor       shared.Principal
	Titulo      string
	EntregaURL  string
	ContentType string
	Size        int64
}

// Validate validates the command.
func (c AttachAnexoCommand) Validate() error {
	if c.ProcesoID == "" {
		return shared.NewDomainError("proceso", "AttachAnexo", shared.ErrInvalidID,
			"proceso id is required")
	}
	return nil
}

// AttachAnexoResult contains the created anexo id.
type AttachAnexoResult struct {
	ProcesoID string
	RecursoID string
}

// AttachAnexoHandler handles the AttachAnexoCommand.
type AttachAnexoHandler struct {
	procesos  proceso.Repository
	attacher  AnexoAttacher
	publisher shared.EventPublisher
}

// NewAttachAnexoHandler creates a new handler.
func NewAttachAnexoHandler(procesos proceso.Repository, attacher AnexoAttacher, publisher shared.EventPublisher) *AttachAnexoHandler {
	return &AttachAnexoHandler{procesos: procesos, attacher: attacher, publisher: publisher}
}

// Handle executes the command. Anexos are a staff section.
func (h *AttachAnexoHandler) Handle(ctx context.Context, cmd AttachAnexoCommand) (*AttachAnexoResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	if !cmd.Actor.Rol.IsStaff() {
		return nil, shared.NewDomainError("proceso", "AttachAnexo", shared.ErrForbidden,
			"only staff can attach anexos")
	}

	p, err := h.procesos.GetByID(ctx, cmd.ProcesoID)
	if err != nil {
		return nil, err
	}

	r, err := recurso.NewRecurso(uuid.NewString(), recurso.TipoAnexo, recurso.SubtipoNinguno, cmd.Titulo)
	if err != nil {
		return nil, err
	}
	if cmd.EntregaURL != "" {
		r.ActualizarEntrega(cmd.EntregaURL, cmd.ContentType, cmd.Size)
	}

	if err := p.AgregarAnexo(r.ID); err != nil {
		return nil, err
	}

	if err := h.attacher.CrearYVincular(ctx, p, r); err != nil {
		return nil, fmt.Errorf("attach_anexo: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventAnexoAdjuntado, p.ID))
		_ = h.publisher.Publish(shared.NewRecursoActualizadoEvent(r.ID, p.ID, r.Tipo.String()))
	}

	return &AttachAnexoResult{ProcesoID: p.ID, RecursoID: r.ID}, nil
}
