package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEGUIMIENTO COMMANDS
// A seguimiento is a periodic checkpoint assigned to a whole grupo: one entry
// and one delivery resource per student, created together in one transaction.
// Deleting the seguimiento cascades its entries in the same transaction and
// leaves the delivery resources orphaned on purpose: without entries nothing
// aggregates them, and history stays recoverable.
// ══════════════════════════════════════════════════════════════════════════════

// SeguimientoCreator persists the seguimiento, its entries and the per-student
// delivery resources in a single storage transaction.
type SeguimientoCreator interface {
	CrearConRecursos(ctx context.Context, s *recurso.SeguimientoGrupo, recursos []*recurso.Recurso) error
}

// CreateSeguimientoCommand contains the checkpoint data.
type CreateSeguimientoCommand struct {
	GrupoID       string
	Actor         shared.Principal
	Titulo        string
	FechaLimite   *time.Time
	EstudianteIDs []string
}

// Validate validates the command.
func (c CreateSeguimientoCommand) Validate() error {
	if c.GrupoID == "" {
		return shared.NewDomainError("seguimiento", "Create", shared.ErrInvalidID,
			"grupo id is required")
	}
	if len(c.EstudianteIDs) == 0 {
		return shared.NewDomainError("seguimiento", "Create", shared.ErrEmptyValue,
			"at least one estudiante is required")
	}
	return nil
}

// CreateSeguimientoResult contains the created seguimiento id.
type CreateSeguimientoResult struct {
	SeguimientoID string
	Entradas      int
}

// DeleteSeguimientoCommand identifies the checkpoint to remove.
type DeleteSeguimientoCommand struct {
	SeguimientoID string
	Actor         shared.Principal
}

// SeguimientoHandler handles seguimiento creation and deletion.
type SeguimientoHandler struct {
	seguimientos recurso.SeguimientoRepository
	creator      SeguimientoCreator
	publisher    shared.EventPublisher
}

// NewSeguimientoHandler creates a new handler.
func NewSeguimientoHandler(
	seguimientos recurso.SeguimientoRepository,
	creator SeguimientoCreator,
	publisher shared.EventPublisher,
) *SeguimientoHandler {
	return &SeguimientoHandler{seguimientos: seguimientos, creator: creator, publisher: publisher}
}

// HandleCreate executes CreateSeguimientoCommand. Staff only.
func (h *SeguimientoHandler) HandleCreate(ctx context.Context, cmd CreateSeguimientoCommand) (*CreateSeguimientoResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}
	if !cmd.Actor.Rol.IsStaff() {
		return nil, shared.NewDomainError("seguimiento", "Create", shared.ErrForbidden,
			"only staff can create seguimientos")
	}

	s, err := recurso.NewSeguimiento(uuid.NewString(), cmd.GrupoID, cmd.Titulo, cmd.FechaLimite)
	if err != nil {
		return nil, err
	}

	recursos := make([]*recurso.Recurso, 0, len(cmd.EstudianteIDs))
	for _, estudianteID := range cmd.EstudianteIDs {
		r, err := recurso.NewRecurso(uuid.NewString(), recurso.TipoSeguimiento, recurso.SubtipoNinguno, "")
		if err != nil {
			return nil, err
		}
		if err := s.AgregarEntrada(uuid.NewString(), estudianteID, r.ID); err != nil {
			return nil, err
		}
		recursos = append(recursos, r)
	}

	if err := h.creator.CrearConRecursos(ctx, s, recursos); err != nil {
		return nil, fmt.Errorf("create_seguimiento: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventSeguimientoCreado, s.ID))
	}

	return &CreateSeguimientoResult{SeguimientoID: s.ID, Entradas: len(s.Entradas)}, nil
}

// HandleDelete executes DeleteSeguimientoCommand. Staff only.
func (h *SeguimientoHandler) HandleDelete(ctx context.Context, cmd DeleteSeguimientoCommand) error {
	if cmd.SeguimientoID == "" {
		return shared.NewDomainError("seguimiento", "Delete", shared.ErrInvalidID,
			"seguimiento id is required")
	}
	if !cmd.Actor.Rol.IsStaff() {
		return shared.NewDomainError("seguimiento", "Delete", shared.ErrForbidden,
			"only staff can delete seguimientos")
	}

	// Existence check first so a missing id reports NotFound, not a silent no-op.
	if _, err := h.seguimientos.GetByID(ctx, cmd.SeguimientoID); err != nil {
		return err
	}

	if err := h.seguimientos.Delete(ctx, cmd.SeguimientoID); err != nil {
		return fmt.Errorf("delete_seguimiento: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventSeguimientoEliminado, cmd.SeguimientoID))
	}
	return nil
}
