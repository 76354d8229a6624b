package query

import (
	"context"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SOLICITUDES QUERY
// Review queue for the director: company requests filtered by estado.
// ══════════════════════════════════════════════════════════════════════════════

// GetSolicitudesQuery contains the queue filters.
type GetSolicitudesQuery struct {
	Actor  shared.Principal
	Estado string
	Limit  int
	Offset int
}

// Validate validates the query and fills defaults.
func (q *GetSolicitudesQuery) Validate() error {
	if q.Estado != "" && !empresa.Estado(q.Estado).IsValid() {
		return shared.NewDomainError("query", "GetSolicitudes", shared.ErrInvalidInput,
			"unknown estado filter: "+q.Estado)
	}
	if q.Limit <= 0 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return nil
}

// SolicitudResumenDTO is one review-queue row.
type SolicitudResumenDTO struct {
	ID                string     `json:"id"`
	Nit               string     `json:"nit"`
	RazonSocial       string     `json:"razon_social"`
	Estado            string     `json:"estado"`
	TotalPracticantes int        `json:"total_practicantes"`
	RevisadoPor       string     `json:"revisado_por,omitempty"`
	FechaDecision     *time.Time `json:"fecha_decision,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// GetSolicitudesResult contains the review queue page.
type GetSolicitudesResult struct {
	Solicitudes []SolicitudResumenDTO `json:"solicitudes"`
	GeneratedAt time.Time             `json:"generated_at"`
}

// GetSolicitudesHandler handles the GetSolicitudesQuery.
type GetSolicitudesHandler struct {
	repo empresa.Repository
}

// NewGetSolicitudesHandler creates a new handler.
func NewGetSolicitudesHandler(repo empresa.Repository) *GetSolicitudesHandler {
	return &GetSolicitudesHandler{repo: repo}
}

// Handle executes the query.
func (h *GetSolicitudesHandler) Handle(ctx context.Context, q GetSolicitudesQuery) (*GetSolicitudesResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if q.Actor.Rol == shared.RolEstudiante || !q.Actor.Rol.IsValid() {
		return nil, shared.NewDomainError("query", "GetSolicitudes", shared.ErrForbidden,
			"the review queue is staff-only")
	}

	lista, err := h.repo.List(ctx, empresa.Estado(q.Estado), q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	result := &GetSolicitudesResult{GeneratedAt: time.Now().UTC()}
	for _, s := range lista {
		result.Solicitudes = append(result.Solicitudes, SolicitudResumenDTO{
			ID:                s.ID,
			Nit:               s.Nit,
			RazonSocial:       s.RazonSocial,
			Estado:            s.Estado.String(),
			TotalPracticantes: s.TotalPracticantes(),
			RevisadoPor:       s.RevisadoPor,
			FechaDecision:     s.FechaDecision,
			CreatedAt:         s.CreatedAt,
		})
	}
	return result, nil
}
