package query

import (
	"context"
	"math"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET SEGUIMIENTO STATS QUERY
// Delivery statistics per checkpoint for a grupo: how many students have a
// delivery on file out of how many were assigned. An entry whose resource no
// longer resolves counts as not delivered, never as an error.
// ══════════════════════════════════════════════════════════════════════════════

// GetSeguimientoStatsQuery identifies the grupo.
type GetSeguimientoStatsQuery struct {
	GrupoID string
	Actor   shared.Principal
}

// Validate validates the query.
func (q GetSeguimientoStatsQuery) Validate() error {
	if q.GrupoID == "" {
		return shared.NewDomainError("query", "GetSeguimientoStats", shared.ErrInvalidID,
			"grupo id is required")
	}
	return nil
}

// SeguimientoStatsDTO is the delivery summary of one checkpoint.
type SeguimientoStatsDTO struct {
	SeguimientoID string     `json:"seguimiento_id"`
	Titulo        string     `json:"titulo"`
	FechaLimite   *time.Time `json:"fecha_limite,omitempty"`

	// Total - assigned entries; Exitosos - entries with a delivery on file.
	Total    int `json:"total"`
	Exitosos int `json:"exitosos"`

	// Porcentaje - Exitosos over Total, 0-100, rounded to one decimal.
	Porcentaje float64 `json:"porcentaje"`
}

// GetSeguimientoStatsResult contains the per-checkpoint stats of a grupo.
type GetSeguimientoStatsResult struct {
	GrupoID      string                `json:"grupo_id"`
	Seguimientos []SeguimientoStatsDTO `json:"seguimientos"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

// GetSeguimientoStatsHandler handles the GetSeguimientoStatsQuery.
type GetSeguimientoStatsHandler struct {
	seguimientos recurso.SeguimientoRepository
	recursos     recurso.Repository
}

// NewGetSeguimientoStatsHandler creates a new handler.
func NewGetSeguimientoStatsHandler(seguimientos recurso.SeguimientoRepository, recursos recurso.Repository) *GetSeguimientoStatsHandler {
	return &GetSeguimientoStatsHandler{seguimientos: seguimientos, recursos: recursos}
}

// Handle executes the query.
func (h *GetSeguimientoStatsHandler) Handle(ctx context.Context, q GetSeguimientoStatsQuery) (*GetSeguimientoStatsResult, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	lista, err := h.seguimientos.ListByGrupo(ctx, q.GrupoID)
	if err != nil {
		return nil, err
	}

	result := &GetSeguimientoStatsResult{
		GrupoID:     q.GrupoID,
		GeneratedAt: time.Now().UTC(),
	}

	for _, s := range lista {
		ids := make([]string, 0, len(s.Entradas))
		for _, e := range s.Entradas {
			ids = append(ids, e.RecursoID)
		}

		resueltos, err := h.recursos.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}

		stats := SeguimientoStatsDTO{
			SeguimientoID: s.ID,
			Titulo:        s.Titulo,
			FechaLimite:   s.FechaLimite,
			Total:         len(s.Entradas),
		}
		for _, e := range s.Entradas {
			if resueltos[e.RecursoID].Entregado() {
				stats.Exitosos++
			}
		}
		if stats.Total > 0 {
			stats.Porcentaje = math.Round(float64(stats.Exitosos)/float64(stats.Total)*1000) / 10
		}

		result.Seguimientos = append(result.Seguimientos, stats)
	}

	return result, nil
}
