package query

import (
	"context"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET TABLERO PRACTICANTES QUERY
// The staff dashboard over the preinscription pipeline: per-estado counters
// plus a filtered page of records. Students never see this board.
// ══════════════════════════════════════════════════════════════════════════════

// GetTableroPracticantesQuery contains the board filters.
type GetTableroPracticantesQuery struct {
	Actor  shared.Principal
	Estado string
	Limit  int
	Offset int
}

// Validate validates the query and fills defaults.
func (q *GetTableroPracticantesQuery) Validate() error {
	if q.Estado != "" && !practicante.Estado(q.Estado).IsValid() {
		return shared.NewDomainError("query", "GetTableroPracticantes", shared.ErrInvalidInput,
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

// PracticanteResumenDTO is one board row.
type PracticanteResumenDTO struct {
	ID             string     `json:"id"`
	Documento      string     `json:"documento"`
	NombreCompleto string     `json:"nombre_completo"`
	Programa       string     `json:"programa"`
	Estado         string     `json:"estado"`
	TieneRecibo    bool       `json:"tiene_recibo"`
	FechaSubida    *time.Time `json:"fecha_subida,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// TableroPracticantesDTO is the board payload.
type TableroPracticantesDTO struct {
	Practicantes []PracticanteResumenDTO `json:"practicantes"`
	PorEstado    map[string]int          `json:"por_estado"`
	GeneratedAt  time.Time               `json:"generated_at"`
}

// GetTableroPracticantesHandler handles the GetTableroPracticantesQuery.
type GetTableroPracticantesHandler struct {
	repo practicante.Repository
}

// NewGetTableroPracticantesHandler creates a new handler.
func NewGetTableroPracticantesHandler(repo practicante.Repository) *GetTableroPracticantesHandler {
	return &GetTableroPracticantesHandler{repo: repo}
}

// Handle executes the query.
func (h *GetTableroPracticantesHandler) Handle(ctx context.Context, q GetTableroPracticantesQuery) (*TableroPracticantesDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	// registro_control works this board daily; estudiantes are shut out.
	if q.Actor.Rol == shared.RolEstudiante || !q.Actor.Rol.IsValid() {
		return nil, shared.NewDomainError("query", "GetTableroPracticantes", shared.ErrForbidden,
			"the preinscription board is staff-only")
	}

	lista, err := h.repo.List(ctx, practicante.Estado(q.Estado), q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}

	conteos, err := h.repo.CountByEstado(ctx)
	if err != nil {
		return nil, err
	}

	dto := &TableroPracticantesDTO{
		PorEstado:   make(map[string]int, len(conteos)),
		GeneratedAt: time.Now().UTC(),
	}
	for estado, n := range conteos {
		dto.PorEstado[estado.String()] = n
	}

	for _, p := range lista {
		dto.Practicantes = append(dto.Practicantes, PracticanteResumenDTO{
			ID:             p.ID,
			Documento:      p.Documento.String(),
			NombreCompleto: p.NombreCompleto(),
			Programa:       p.Programa,
			Estado:         p.Estado.String(),
			TieneRecibo:    p.ValidacionPago.ComprobanteURL != "",
			FechaSubida:    p.ValidacionPago.FechaSubida,
			CreatedAt:      p.CreatedAt,
		})
	}

	return dto, nil
}
