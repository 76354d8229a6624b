// Package command contains write operations (CQRS - Commands).
// Commands are responsible for changing the state of the system. Every
// transition goes through the authorization gate before touching storage.
package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUBMIT PREINSCRIPCION COMMAND
// Creates the practicante record in estado preinscrito. The document number
// is the idempotency boundary: one record per document, not per email.
// ══════════════════════════════════════════════════════════════════════════════

// SubmitPreinscripcionCommand contains the preinscription form data.
type SubmitPreinscripcionCommand struct {
	Documento     string
	Nombres       string
	Apellidos     string
	EmailPersonal string
	Telefono      string
	Programa      string
}

// Validate validates the command.
func (c SubmitPreinscripcionCommand) Validate() error {
	if c.Documento == "" {
		return shared.NewDomainError("practicante", "SubmitPreinscripcion", shared.ErrEmptyValue,
			"documento is required")
	}
	return nil
}

// SubmitPreinscripcionResult contains the created record id.
type SubmitPreinscripcionResult struct {
	PracticanteID string
	Estado        string
}

// SubmitPreinscripcionHandler handles the SubmitPreinscripcionCommand.
type SubmitPreinscripcionHandler struct {
	repo      practicante.Repository
	publisher shared.EventPublisher
}

// NewSubmitPreinscripcionHandler creates a new handler.
func NewSubmitPreinscripcionHandler(repo practicante.Repository, publisher shared.EventPublisher) *SubmitPreinscripcionHandler {
	return &SubmitPreinscripcionHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *SubmitPreinscripcionHandler) Handle(ctx context.Context, cmd SubmitPreinscripcionCommand) (*SubmitPreinscripcionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	doc, err := shared.NewDocumentoIdentidad(cmd.Documento)
	if err != nil {
		return nil, err
	}

	email, err := shared.NewEmail(cmd.EmailPersonal)
	if err != nil {
		return nil, err
	}

	p, err := practicante.NewPracticante(practicante.NewPracticanteParams{
		ID:            uuid.NewString(),
		Documento:     doc,
		Nombres:       cmd.Nombres,
		Apellidos:     cmd.Apellidos,
		EmailPersonal: email,
		Telefono:      cmd.Telefono,
		Programa:      cmd.Programa,
	})
	if err != nil {
		return nil, err
	}

	// The unique index on documento is the real guard; this create surfaces
	// the duplicate as a distinguishable Conflict.
	if err := h.repo.Create(ctx, p); err != nil {
		if errors.Is(err, shared.ErrConflict) || errors.Is(err, shared.ErrAlreadyExists) {
			return nil, practicante.ErrDocumentoDuplicado
		}
		return nil, fmt.Errorf("submit_preinscripcion: %w", err)
	}

	h.publish(shared.NewBaseEvent(shared.EventPreinscripcionCreada, p.ID))

	return &SubmitPreinscripcionResult{
		PracticanteID: p.ID,
		Estado:        p.Estado.String(),
	}, nil
}

func (h *SubmitPreinscripcionHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
