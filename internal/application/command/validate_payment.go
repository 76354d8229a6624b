package command

import (
	"context"
	"fmt"
	"strings"

	"github.com/fesc-practicas/practicas-hub/internal/domain/autorizacion"
	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALIDATE PAYMENT COMMAND
// Approves or rejects the payment receipt. Only from pago_pendiente, only by
// admin or registro_control. A rejection requires non-empty comments so the
// student knows what to fix. The repository persists the whole record in one
// atomic write: state and validation stamp never diverge.
// ══════════════════════════════════════════════════════════════════════════════

// Decision is the reviewer's verdict on a payment receipt.
type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ValidatePaymentCommand contains the reviewer's decision.
type ValidatePaymentCommand struct {
	PracticanteID string
	Actor         shared.Principal
	Decision      Decision
	Comentarios   string
}

// Validate validates the command.
func (c ValidatePaymentCommand) Validate() error {
	if c.PracticanteID == "" {
		return shared.NewDomainError("practicante", "ValidatePayment", shared.ErrInvalidID,
			"practicante id is required")
	}
	if c.Decision != DecisionApprove && c.Decision != DecisionReject {
		return shared.NewDomainError("practicante", "ValidatePayment", shared.ErrInvalidInput,
			"decision must be approve or reject")
	}
	if c.Decision == DecisionReject && strings.TrimSpace(c.Comentarios) == "" {
		return practicante.ErrComentariosRequeridos
	}
	return nil
}

// ValidatePaymentResult reports the resulting state.
type ValidatePaymentResult struct {
	PracticanteID string
	Estado        string
}

// ValidatePaymentHandler handles the ValidatePaymentCommand.
type ValidatePaymentHandler struct {
	repo      practicante.Repository
	publisher shared.EventPublisher
}

// NewValidatePaymentHandler creates a new handler.
func NewValidatePaymentHandler(repo practicante.Repository, publisher shared.EventPublisher) *ValidatePaymentHandler {
	return &ValidatePaymentHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *ValidatePaymentHandler) Handle(ctx context.Context, cmd ValidatePaymentCommand) (*ValidatePaymentResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.repo.GetByID(ctx, cmd.PracticanteID)
	if err != nil {
		return nil, err
	}

	target := practicante.EstadoPagoValidado
	eventType := shared.EventPagoValidado
	if cmd.Decision == DecisionReject {
		target = practicante.EstadoRechazado
		eventType = shared.EventPagoRechazado
	}

	from := p.Estado.String()
	if err := autorizacion.Check(cmd.Actor.Rol, autorizacion.PipelinePracticante,
		from, target.String()); err != nil {
		return nil, err
	}

	if cmd.Decision == DecisionApprove {
		err = p.AprobarPago(cmd.Actor.SubjectID, cmd.Comentarios)
	} else {
		err = p.RechazarPago(cmd.Actor.SubjectID, cmd.Comentarios)
	}
	if err != nil {
		return nil, err
	}

	if err := h.repo.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("validate_payment: %w", err)
	}

	h.publish(shared.NewEstadoCambiadoEvent(eventType, p.ID,
		"practicante", from, p.Estado.String(), cmd.Actor.SubjectID))

	return &ValidatePaymentResult{PracticanteID: p.ID, Estado: p.Estado.String()}, nil
}

func (h *ValidatePaymentHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
