package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET OR CREATE PROCESO COMMAND
// Exactly one ProcesoPracticas exists per (estudiante, grupo). The storage
// layer enforces it with a unique index; a concurrent create loses the race
// as a Conflict and the loser re-reads the winner's row. Every concurrent
// caller therefore gets the same proceso id.
// ══════════════════════════════════════════════════════════════════════════════

// GetOrCreateProcesoCommand identifies the pair.
type GetOrCreateProcesoCommand struct {
	EstudianteID string
	GrupoID      string
	Actor        shared.Principal
}

// Validate validates the command.
func (c GetOrCreateProcesoCommand) Validate() error {
	if c.EstudianteID == "" || c.GrupoID == "" {
		return shared.NewDomainError("proceso", "GetOrCreate", shared.ErrInvalidID,
			"estudiante id and grupo id are required")
	}
	return nil
}

// GetOrCreateProcesoResult reports the proceso and whether it was created.
type GetOrCreateProcesoResult struct {
	Proceso *proceso.ProcesoPracticas
	Created bool
}

// GetOrCreateProcesoHandler handles the GetOrCreateProcesoCommand.
type GetOrCreateProcesoHandler struct {
	repo      proceso.Repository
	publisher shared.EventPublisher
}

// NewGetOrCreateProcesoHandler creates a new handler.
func NewGetOrCreateProcesoHandler(repo proceso.Repository, publisher shared.EventPublisher) *GetOrCreateProcesoHandler {
	return &GetOrCreateProcesoHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *GetOrCreateProcesoHandler) Handle(ctx context.Context, cmd GetOrCreateProcesoCommand) (*GetOrCreateProcesoResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	// Students only open their own proceso.
	if cmd.Actor.Rol == shared.RolEstudiante && !cmd.Actor.IsOwner(cmd.EstudianteID) {
		return nil, shared.NewDomainError("proceso", "GetOrCreate", shared.ErrForbidden,
			"students can only open their own proceso")
	}

	var created bool
	p, err := retry.DoWithData(ctx, func(ctx context.Context) (*proceso.ProcesoPracticas, error) {
		existing, err := h.repo.GetByEstudianteGrupo(ctx, cmd.EstudianteID, cmd.GrupoID)
		if err == nil {
			created = false
			return existing, nil
		}
		if !shared.IsNotFound(err) {
			return nil, err
		}

		nuevo, err := proceso.NewProceso(uuid.NewString(), cmd.EstudianteID, cmd.GrupoID)
		if err != nil {
			return nil, err
		}
		// A concurrent winner surfaces here as Conflict; the retry re-reads.
		if err := h.repo.Create(ctx, nuevo); err != nil {
			return nil, err
		}
		created = true
		return nuevo, nil
	}, retry.WithMaxAttempts(3), retry.WithInitialDelay(10*time.Millisecond), retry.WithRetryIf(shared.IsConflict))
	if err != nil {
		return nil, fmt.Errorf("get_or_create_proceso: %w", err)
	}

	if created && h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventProcesoCreado, p.ID))
	}

	return &GetOrCreateProcesoResult{Proceso: p, Created: created}, nil
}
