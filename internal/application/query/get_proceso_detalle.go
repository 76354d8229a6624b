package query

import (
	"context"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PROCESO DETALLE QUERY
// The full practicum view for one student: completion semáforos, the
// recomputed evaluation average and the student's seguimiento deliveries.
// The average is never read from storage, it is recomputed on every read so
// a corrected nota is reflected immediately.
// ══════════════════════════════════════════════════════════════════════════════

// GetProcesoDetalleQuery identifies the (estudiante, grupo) pair.
type GetProcesoDetalleQuery struct {
	EstudianteID string
	GrupoID      string
	Actor        shared.Principal
}

// Validate validates the query.
func (q GetProcesoDetalleQuery) Validate() error {
	if q.EstudianteID == "" || q.GrupoID == "" {
		return shared.NewDomainError("query", "GetProcesoDetalle", shared.ErrInvalidID,
			"estudiante id and grupo id are required")
	}
	return nil
}

// EvaluacionDTO exposes the evaluation with its recomputed average.
type EvaluacionDTO struct {
	Notas         []*float64 `json:"notas"`
	Promedio      *float64   `json:"promedio"`
	Enlace        string     `json:"enlace,omitempty"`
	Observaciones string     `json:"observaciones,omitempty"`
}

// EntregaSeguimientoDTO is one of the student's checkpoint deliveries.
type EntregaSeguimientoDTO struct {
	SeguimientoID string     `json:"seguimiento_id"`
	Titulo        string     `json:"titulo"`
	FechaLimite   *time.Time `json:"fecha_limite,omitempty"`
	RecursoID     string     `json:"recurso_id"`
	Entregado     bool       `json:"entregado"`
	Semaforo      string     `json:"semaforo"`
	Nota          *float64   `json:"nota,omitempty"`
}

// ProcesoDetalleDTO is the aggregated practicum view.
type ProcesoDetalleDTO struct {
	ProcesoID      string                  `json:"proceso_id"`
	EstudianteID   string                  `json:"estudiante_id"`
	GrupoID        string                  `json:"grupo_id"`
	EsConsultoria  bool                    `json:"es_consultoria"`
	Evaluacion     EvaluacionDTO           `json:"evaluacion"`
	Autoevaluacion string                  `json:"autoevaluacion,omitempty"`
	Completion     *CompletionDTO          `json:"completion"`
	Seguimientos   []EntregaSeguimientoDTO `json:"seguimientos,omitempty"`

	// Delivery counters over the student's checkpoint entries, same
	// exitoso criterion as the grupo stats: a delivery on file.
	SeguimientosTotal    int `json:"seguimientos_total"`
	SeguimientosExitosos int `json:"seguimientos_exitosos"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetProcesoDetalleHandler handles the GetProcesoDetalleQuery.
type GetProcesoDetalleHandler struct {
	procesos     proceso.Repository
	recursos     recurso.Repository
	seguimientos recurso.SeguimientoRepository
	completion   *GetCompletionHandler
}

// NewGetProcesoDetalleHandler creates a new handler.
func NewGetProcesoDetalleHandler(
	procesos proceso.Repository,
	recursos recurso.Repository,
	seguimientos recurso.SeguimientoRepository,
	completion *GetCompletionHandler,
) *GetProcesoDetalleHandler {
	return &GetProcesoDetalleHandler{
		procesos:     procesos,
		recursos:     recursos,
		seguimientos: seguimientos,
		completion:   completion,
	}
}

// Handle executes the query.
func (h *GetProcesoDetalleHandler) Handle(ctx context.Context, q GetProcesoDetalleQuery) (*ProcesoDetalleDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.Actor.Rol == shared.RolEstudiante && !q.Actor.IsOwner(q.EstudianteID) {
		return nil, shared.NewDomainError("query", "GetProcesoDetalle", shared.ErrForbidden,
			"students can only read their own proceso")
	}

	p, err := h.procesos.GetByEstudianteGrupo(ctx, q.EstudianteID, q.GrupoID)
	if err != nil {
		return nil, err
	}

	completion, err := h.completion.Handle(ctx, GetCompletionQuery{ProcesoID: p.ID, Actor: q.Actor})
	if err != nil {
		return nil, err
	}

	entregas, err := h.entregasSeguimiento(ctx, p)
	if err != nil {
		return nil, err
	}

	exitosos := 0
	for _, e := range entregas {
		if e.Entregado {
			exitosos++
		}
	}

	return &ProcesoDetalleDTO{
		ProcesoID:     p.ID,
		EstudianteID:  p.EstudianteID,
		GrupoID:       p.GrupoID,
		EsConsultoria: p.EsConsultoria,
		Evaluacion: EvaluacionDTO{
			Notas:         p.Evaluacion.Notas[:],
			Promedio:      p.Evaluacion.Promedio(),
			Enlace:        p.Evaluacion.Enlace,
			Observaciones: p.Evaluacion.Observaciones,
		},
		Autoevaluacion:       p.Autoevaluacion,
		Completion:           completion,
		Seguimientos:         entregas,
		SeguimientosTotal:    len(entregas),
		SeguimientosExitosos: exitosos,
		GeneratedAt:          time.Now().UTC(),
	}, nil
}

// entregasSeguimiento collects the student's entries across the grupo's
// checkpoints, in checkpoint order.
func (h *GetProcesoDetalleHandler) entregasSeguimiento(ctx context.Context, p *proceso.ProcesoPracticas) ([]EntregaSeguimientoDTO, error) {
	lista, err := h.seguimientos.ListByGrupo(ctx, p.GrupoID)
	if err != nil {
		return nil, err
	}

	var out []EntregaSeguimientoDTO
	for _, s := range lista {
		entrada, ok := s.EntradaDe(p.EstudianteID)
		if !ok {
			continue
		}

		r, err := h.recursos.GetByID(ctx, entrada.RecursoID)
		if err != nil && !shared.IsNotFound(err) {
			return nil, err
		}

		dto := EntregaSeguimientoDTO{
			SeguimientoID: s.ID,
			Titulo:        s.Titulo,
			FechaLimite:   s.FechaLimite,
			RecursoID:     entrada.RecursoID,
			Entregado:     r.Entregado(),
			Semaforo:      string(r.Clasificar()),
		}
		if r != nil {
			dto.Nota = r.Nota
		}
		out = append(out, dto)
	}
	return out, nil
}
