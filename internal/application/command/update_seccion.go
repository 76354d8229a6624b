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
// UPDATE SECCION COMMAND
// Writes one section of a proceso. Staff roles write any section; a student
// writes only autoevaluacion and their own seguimiento delivery, and only on
// their own proceso. A seguimiento delivery resets the resource verification
// to pendiente: whatever was delivered must be reviewed again.
// ══════════════════════════════════════════════════════════════════════════════

// UpdateSeccionCommand carries the section payload. Only the fields relevant
// to the named section are read; nil pointer fields mean "leave unchanged".
type UpdateSeccionCommand struct {
	ProcesoID string
	Actor     shared.Principal
	Seccion   proceso.Seccion

	// Evaluacion: sparse nota writes by index plus optional text fields.
	Notas         map[int]*float64
	Enlace        *string
	Observaciones *string

	// Autoevaluacion.
	Autoevaluacion *string

	// Resource delivery (arl, atlas, certificado, seguimiento).
	SubtipoAtlas  string
	SeguimientoID string
	EntregaURL    string
	ContentType   string
	Size          int64
}

// Validate validates the command.
func (c UpdateSeccionCommand) Validate() error {
	if c.ProcesoID == "" {
		return shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrInvalidID,
			"proceso id is required")
	}
	if !c.Seccion.IsValid() {
		return proceso.ErrSeccionDesconocida
	}
	if c.Seccion == proceso.SeccionAnexos {
		return shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrInvalidInput,
			"anexos are attached, not updated as a section")
	}
	if c.Seccion == proceso.SeccionSeguimiento && c.SeguimientoID == "" {
		return shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrInvalidID,
			"seguimiento id is required for seguimiento deliveries")
	}
	return nil
}

// UpdateSeccionResult reports the touched proceso and resource, if any.
type UpdateSeccionResult struct {
	ProcesoID string
	RecursoID string
}

// UpdateSeccionHandler handles the UpdateSeccionCommand.
type UpdateSeccionHandler struct {
	procesos     proceso.Repository
	recursos     recurso.Repository
	seguimientos recurso.SeguimientoRepository
	publisher    shared.EventPublisher
}

// NewUpdateSeccionHandler creates a new handler.
func NewUpdateSeccionHandler(
	procesos proceso.Repository,
	recursos recurso.Repository,
	seguimientos recurso.SeguimientoRepository,
	publisher shared.EventPublisher,
) *UpdateSeccionHandler {
	return &UpdateSeccionHandler{
		procesos:     procesos,
		recursos:     recursos,
		seguimientos: seguimientos,
		publisher:    publisher,
	}
}

// Handle executes the command.
func (h *UpdateSeccionHandler) Handle(ctx context.Context, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	p, err := h.procesos.GetByID(ctx, cmd.ProcesoID)
	if err != nil {
		return nil, err
	}

	if cmd.Actor.Rol == shared.RolEstudiante {
		if !cmd.Actor.IsOwner(p.EstudianteID) {
			return nil, shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrForbidden,
				"students can only write their own proceso")
		}
		if !cmd.Seccion.WritableByStudent() {
			return nil, shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrForbidden,
				fmt.Sprintf("section %s is staff-only", cmd.Seccion))
		}
	}

	switch cmd.Seccion {
	case proceso.SeccionEvaluacion:
		return h.updateEvaluacion(ctx, p, cmd)
	case proceso.SeccionAutoevaluacion:
		return h.updateAutoevaluacion(ctx, p, cmd)
	case proceso.SeccionSeguimiento:
		return h.updateSeguimiento(ctx, p, cmd)
	case proceso.SeccionARL, proceso.SeccionAtlas, proceso.SeccionCertificado:
		return h.updateEntregaRecurso(ctx, p, cmd)
	default:
		return nil, proceso.ErrSeccionDesconocida
	}
}

func (h *UpdateSeccionHandler) updateEvaluacion(ctx context.Context, p *proceso.ProcesoPracticas, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	for idx, nota := range cmd.Notas {
		if err := p.SetNota(idx, nota); err != nil {
			return nil, err
		}
	}
	if cmd.Enlace != nil {
		p.Evaluacion.Enlace = *cmd.Enlace
	}
	if cmd.Observaciones != nil {
		p.Evaluacion.Observaciones = *cmd.Observaciones
	}
	return h.saveProceso(ctx, p, cmd)
}

func (h *UpdateSeccionHandler) updateAutoevaluacion(ctx context.Context, p *proceso.ProcesoPracticas, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	if cmd.Autoevaluacion != nil {
		p.SetAutoevaluacion(*cmd.Autoevaluacion)
	}
	return h.saveProceso(ctx, p, cmd)
}

// updateSeguimiento registers a delivery on the student's seguimiento
// resource. The resource lives under the seguimiento, not the proceso, so the
// proceso row itself is untouched.
func (h *UpdateSeccionHandler) updateSeguimiento(ctx context.Context, p *proceso.ProcesoPracticas, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	s, err := h.seguimientos.GetByID(ctx, cmd.SeguimientoID)
	if err != nil {
		return nil, err
	}
	if s.GrupoID != p.GrupoID {
		return nil, shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrInvalidInput,
			"seguimiento belongs to another grupo")
	}

	entrada, ok := s.EntradaDe(p.EstudianteID)
	if !ok {
		return nil, recurso.ErrSeguimientoNotFound
	}

	r, err := h.recursos.GetByID(ctx, entrada.RecursoID)
	if err != nil {
		return nil, err
	}

	r.ActualizarEntrega(cmd.EntregaURL, cmd.ContentType, cmd.Size)
	if err := h.recursos.Update(ctx, r); err != nil {
		return nil, fmt.Errorf("update_seccion: %w", err)
	}

	h.publish(shared.NewRecursoActualizadoEvent(r.ID, p.ID, r.Tipo.String()))
	return &UpdateSeccionResult{ProcesoID: p.ID, RecursoID: r.ID}, nil
}

// updateEntregaRecurso writes a delivery into a 1:1 section resource,
// creating and linking the resource on first delivery.
func (h *UpdateSeccionHandler) updateEntregaRecurso(ctx context.Context, p *proceso.ProcesoPracticas, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	recursoID, tipo, subtipo, err := seccionRecurso(p, cmd.Seccion, cmd.SubtipoAtlas)
	if err != nil {
		return nil, err
	}

	var r *recurso.Recurso
	if recursoID != "" {
		r, err = h.recursos.GetByID(ctx, recursoID)
		if err != nil {
			return nil, err
		}
		r.ActualizarEntrega(cmd.EntregaURL, cmd.ContentType, cmd.Size)
		if err := h.recursos.Update(ctx, r); err != nil {
			return nil, fmt.Errorf("update_seccion: %w", err)
		}
	} else {
		r, err = recurso.NewRecurso(uuid.NewString(), tipo, subtipo, "")
		if err != nil {
			return nil, err
		}
		r.ActualizarEntrega(cmd.EntregaURL, cmd.ContentType, cmd.Size)
		if err := h.recursos.Create(ctx, r); err != nil {
			return nil, fmt.Errorf("update_seccion: %w", err)
		}
		if err := p.SetRecurso(cmd.Seccion, cmd.SubtipoAtlas, r.ID); err != nil {
			return nil, err
		}
		if err := h.procesos.Update(ctx, p); err != nil {
			return nil, fmt.Errorf("update_seccion: %w", err)
		}
	}

	h.publish(shared.NewRecursoActualizadoEvent(r.ID, p.ID, r.Tipo.String()))
	h.publish(shared.NewBaseEvent(shared.EventSeccionActualizada, p.ID))
	return &UpdateSeccionResult{ProcesoID: p.ID, RecursoID: r.ID}, nil
}

func (h *UpdateSeccionHandler) saveProceso(ctx context.Context, p *proceso.ProcesoPracticas, cmd UpdateSeccionCommand) (*UpdateSeccionResult, error) {
	if err := h.procesos.Update(ctx, p); err != nil {
		return nil, fmt.Errorf("update_seccion: %w", err)
	}
	h.publish(shared.NewBaseEvent(shared.EventSeccionActualizada, p.ID))
	return &UpdateSeccionResult{ProcesoID: p.ID}, nil
}

// seccionRecurso resolves the linked resource id and the tipo/subtipo to use
// when the section has no resource yet.
func seccionRecurso(p *proceso.ProcesoPracticas, s proceso.Seccion, subtipoAtlas string) (string, recurso.Tipo, recurso.Subtipo, error) {
	switch s {
	case proceso.SeccionARL:
		return p.ArlID, recurso.TipoARL, recurso.SubtipoNinguno, nil
	case proceso.SeccionCertificado:
		return p.CertificadoID, recurso.TipoCertificado, recurso.SubtipoNinguno, nil
	case proceso.SeccionAtlas:
		switch recurso.Subtipo(subtipoAtlas) {
		case recurso.SubtipoAutorizacionDocente:
			return p.AtlasDocenteID, recurso.TipoAtlas, recurso.SubtipoAutorizacionDocente, nil
		case recurso.SubtipoAutorizacionEstudiante:
			return p.AtlasEstudianteID, recurso.TipoAtlas, recurso.SubtipoAutorizacionEstudiante, nil
		case recurso.SubtipoRelacionObras:
			return p.AtlasObrasID, recurso.TipoAtlas, recurso.SubtipoRelacionObras, nil
		default:
			return "", "", "", shared.NewDomainError("proceso", "UpdateSeccion", shared.ErrInvalidInput,
				"unknown atlas subtipo: "+subtipoAtlas)
		}
	default:
		return "", "", "", proceso.ErrSeccionDesconocida
	}
}

func (h *UpdateSeccionHandler) publish(event shared.Event) {
	if h.publisher != nil {
		_ = h.publisher.Publish(event)
	}
}
