package command

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREAR SOLICITUD COMMAND
// A company files a request for one or more interns. The record starts in
// pendiente_revision; no authorization is required to file.
// ══════════════════════════════════════════════════════════════════════════════

// PracticanteSolicitadoInput is one requested intern profile.
type PracticanteSolicitadoInput struct {
	Perfil    string
	Programa  string
	Cantidad  int
	Funciones string
}

// CrearSolicitudCommand contains the company request form data.
type CrearSolicitudCommand struct {
	Nit           string
	RazonSocial   string
	EmailContacto string
	Telefono      string
	Direccion     string
	Practicantes  []PracticanteSolicitadoInput
}

// CrearSolicitudResult contains the created request id.
type CrearSolicitudResult struct {
	SolicitudID string
	Estado      string
}

// CrearSolicitudHandler handles the CrearSolicitudCommand.
type CrearSolicitudHandler struct {
	repo      empresa.Repository
	publisher shared.EventPublisher
}

// NewCrearSolicitudHandler creates a new handler.
func NewCrearSolicitudHandler(repo empresa.Repository, publisher shared.EventPublisher) *CrearSolicitudHandler {
	return &CrearSolicitudHandler{repo: repo, publisher: publisher}
}

// Handle executes the command.
func (h *CrearSolicitudHandler) Handle(ctx context.Context, cmd CrearSolicitudCommand) (*CrearSolicitudResult, error) {
	email, err := shared.NewEmail(cmd.EmailContacto)
	if err != nil {
		return nil, err
	}

	perfiles := make([]empresa.PracticanteSolicitado, 0, len(cmd.Practicantes))
	for _, in := range cmd.Practicantes {
		perfiles = append(perfiles, empresa.PracticanteSolicitado{
			Perfil:    in.Perfil,
			Programa:  in.Programa,
			Cantidad:  in.Cantidad,
			Funciones: in.Funciones,
		})
	}

	s, err := empresa.NewSolicitud(empresa.NewSolicitudParams{
		ID:            uuid.NewString(),
		Nit:           cmd.Nit,
		RazonSocial:   cmd.RazonSocial,
		EmailContacto: email,
		Telefono:      cmd.Telefono,
		Direccion:     cmd.Direccion,
		Practicantes:  perfiles,
	})
	if err != nil {
		return nil, err
	}

	if err := h.repo.Create(ctx, s); err != nil {
		return nil, fmt.Errorf("crear_solicitud: %w", err)
	}

	if h.publisher != nil {
		_ = h.publisher.Publish(shared.NewBaseEvent(shared.EventSolicitudRecibida, s.ID))
	}

	return &CrearSolicitudResult{SolicitudID: s.ID, Estado: s.Estado.String()}, nil
}
