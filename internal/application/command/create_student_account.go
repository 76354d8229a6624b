package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/autorizacion"
	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE STUDENT ACCOUNT COMMAND
// The final pipeline step: creates the institutional account and advances the
// record to estudiante_creado. Admin only, only from pago_validado, and only
// with an institutional email on file. Account row and record advance are
// persisted in ONE storage transaction: partial application is a consistency
// violation.
// ══════════════════════════════════════════════════════════════════════════════

// CuentasService creates the account and persists the advanced practicante in
// a single storage transaction. Returns Conflict when an account with the
// same institutional email already exists.
type CuentasService interface {
	CrearCuentaYAvanzar(ctx context.Context, p *practicante.Practicante, password string) error
}

// CreateStudentAccountCommand contains the account data.
type CreateStudentAccountCommand struct {
	PracticanteID      string
	Actor              shared.Principal
	EmailInstitucional string
	Password           string
}

// Validate validates the command.
func (c CreateStudentAccountCommand) Validate() error {
	if c.PracticanteID == "" {
		return shared.NewDomainError("practicante", "CreateStudentAccount", shared.ErrInvalidID,
			"practicante id is required")
	}
	if len(c.Password) < 8 {
		return shared.NewDomainError("practicante", "CreateStudentAccount", shared.ErrValidation,
			"password must be at least 8 characters")
	}
	return nil
}

// CreateStudentAccountResult contains the created account id.
type CreateStudentAccountResult struct {
	PracticanteID string
	UsuarioID     string
	Estado        string
}

// CreateStudentAccountHandler handles the CreateStudentAccountCommand.
type CreateStudentAccountHandler struct {
	repo      practicante.Repository
	cuentas   CuentasService
	publisher shared.EventPublisher
}

// NewCreateStudentAccountHandler creates a new handler.
func NewCreateStudentAccountHandler(
	repo practicante.Repository,
	cuentas CuentasService,
	publisher shared.EventPublisher,
) *CreateStudentAccountHandler {
	return &CreateStudentAccountHandler{repo: repo, cuentas: cuentas, publisher: publisher}
}

// Handle executes the command.
func (h *CreateStudentAccountHandler) Handle(ctx context.Context, cmd CreateStudentAccountCommand) (*CreateStudentAccountResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.repo.GetByID(ctx, cmd.PracticanteID)
	if err != nil {
		return nil, err
	}

	from := p.Estado.String()
	if err := autorizacion.Check(cmd.Actor.Rol, autorizacion.PipelinePracticante,
		from, practicante.EstadoEstudianteCreado.String()); err != nil {
		return nil, err
	}

	// The institutional email may come with the command or already be on the
	// record; without one the precondition fails inside CrearCuenta.
	if cmd.EmailInstitucional != "" {
		email, err := shared.NewEmail(cmd.EmailInstitucional)
		if err != nil {
			return nil, err
		}
		if err := p.AsignarEmailInstitucional(email); err != nil {
			return nil, err
		}
	}

	usuarioID := uuid.NewString()
	if err := p.CrearCuenta(usuarioID, cmd.Actor.SubjectID); err != nil {
		return nil, err
	}

	// One transaction: account row + advanced record, or neither.
	if err := h.cuentas.CrearCuentaYAvanzar(ctx, p, cmd.Password); err != nil {
		return nil, fmt.Errorf("create_student_account: %w", err)
	}

	h.publish(shared.NewEstadoCambiadoEvent(shared.EventEstudianteCreado, p.ID,
		"practicante", from, p.Estado.String(), cmd.Actor.SubjectID))

	return &CreateStudentAccountResult{
		PracticanteID: p.ID,
		UsuarioID:     usuarioID,
		Estado:        p.Estado.String(),
	}, nil
}

func (h *CreateStudentAccountHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
