package command

import (
	"context"
	"fmt"

	"github.com/fesc-practicas/practicas-hub/internal/domain/autorizacion"
	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT COMPROBANTE COMMAND
// Registers the payment receipt reference and moves the record to
// pago_pendiente. Legal from preinscrito, pago_pendiente (resubmission) and
// rechazado (re-entry after a rejection).
// ══════════════════════════════════════════════════════════════════════════════

// SubmitComprobanteCommand contains the uploaded receipt reference. The file
// bytes never reach the core: the storage adapter hands back an opaque URL
// plus metadata.
type SubmitComprobanteCommand struct {
	PracticanteID string
	Actor         shared.Principal
	ArchivoURL    string
	ContentType   string
	Size          int64
}

// Validate validates the command.
func (c SubmitComprobanteCommand) Validate() error {
	if c.PracticanteID == "" {
		return shared.NewDomainError("practicante", "SubmitComprobante", shared.ErrInvalidID,
			"practicante id is required")
	}
	if c.ArchivoURL == "" {
		return shared.NewDomainError("practicante", "SubmitComprobante", shared.ErrEmptyValue,
			"archivo reference is required")
	}
	return nil
}

// SubmitComprobanteResult reports the resulting state.
type SubmitComprobanteResult struct {
	PracticanteID string
	Estado        string
}

// SubmitComprobanteHandler handles the SubmitComprobanteCommand.
type SubmitComprobanteHandler struct {
	repo      practicante.Repository
	publisher shared.EventPublisher
}

// NewSubmitComprobanteHandler creates a new handler.
func NewSubmitComprobanteHandler(repo practicante.Repository, publisher shared.EventPublisher) *SubmitComprobanteHandler {
	return &SubmitComprobanteHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *SubmitComprobanteHandler) Handle(ctx context.Context, cmd SubmitComprobanteCommand) (*SubmitComprobanteResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.repo.GetByID(ctx, cmd.PracticanteID)
	if err != nil {
		return nil, err
	}

	// A student can only act on their own record.
	if cmd.Actor.Rol == shared.RolEstudiante && !cmd.Actor.IsOwner(p.ID) {
		return nil, shared.NewDomainError("practicante", "SubmitComprobante", shared.ErrForbidden,
			"students can only submit receipts for their own record")
	}

	from := p.Estado.String()
	if err := autorizacion.Check(cmd.Actor.Rol, autorizacion.PipelinePracticante,
		from, practicante.EstadoPagoPendiente.String()); err != nil {
		return nil, err
	}

	if err := p.SubmitComprobante(cmd.ArchivoURL, cmd.ContentType, cmd.Size); err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("submit_comprobante: %w", err)
	}

	h.publish(shared.NewEstadoCambiadoEvent(shared.EventComprobanteSubido, p.ID,
		"practicante", from, p.Estado.String(), cmd.Actor.SubjectID))

	return &SubmitComprobanteResult{PracticanteID: p.ID, Estado: p.Estado.String()}, nil
}

func (h *SubmitComprobanteHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
