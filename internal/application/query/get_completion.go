// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET COMPLETION QUERY
// Aggregates the semáforo of every resource linked to a proceso. The
// aggregation is exhaustive over the linked sections and never fails on a
// dangling reference: an id that no longer resolves counts as rojo, exactly
// like a section with no delivery.
// ══════════════════════════════════════════════════════════════════════════════

// CompletionCache is a read-model cache keyed by proceso id. The postgres
// data stays authoritative; a miss or a cache error only costs a recompute.
type CompletionCache interface {
	Get(ctx context.Context, procesoID string) (*CompletionDTO, bool)
	Set(ctx context.Context, procesoID string, dto *CompletionDTO) error
	Invalidate(ctx context.Context, procesoID string) error
}

// GetCompletionQuery identifies the proceso to aggregate.
type GetCompletionQuery struct {
	ProcesoID string
	Actor     shared.Principal

	// SkipCache forces a recompute, used right after writes.
	SkipCache bool
}

// Validate validates the query.
func (q GetCompletionQuery) Validate() error {
	if q.ProcesoID == "" {
		return shared.NewDomainError("query", "GetCompletion", shared.ErrInvalidID,
			"proceso id is required")
	}
	return nil
}

// SeccionSemaforoDTO is the classification of one linked resource.
type SeccionSemaforoDTO struct {
	// Seccion - arl, atlas_docente, atlas_estudiante, atlas_obras,
	// certificado or anexo.
	Seccion string `json:"seccion"`

	// RecursoID - empty when the section has no resource yet.
	RecursoID string `json:"recurso_id,omitempty"`

	// Titulo - visible name, set for anexos.
	Titulo string `json:"titulo,omitempty"`

	// Semaforo - rojo / amarillo / verde.
	Semaforo string `json:"semaforo"`

	// Entregado - whether a delivery is on file.
	Entregado bool `json:"entregado"`

	// Nota - grade, when assigned.
	Nota *float64 `json:"nota,omitempty"`
}

// CompletionDTO is the aggregated dashboard row for one proceso.
type CompletionDTO struct {
	ProcesoID    string               `json:"proceso_id"`
	EstudianteID string               `json:"estudiante_id"`
	GrupoID      string               `json:"grupo_id"`
	Secciones    []SeccionSemaforoDTO `json:"secciones"`
	Anexos       []SeccionSemaforoDTO `json:"anexos,omitempty"`

	// Counters over Secciones plus Anexos.
	Rojos     int `json:"rojos"`
	Amarillos int `json:"amarillos"`
	Verdes    int `json:"verdes"`
	Total     int `json:"total"`

	GeneratedAt time.Time `json:"generated_at"`
}

// GetCompletionHandler handles the GetCompletionQuery.
type GetCompletionHandler struct {
	procesos proceso.Repository
	recursos recurso.Repository
	cache    CompletionCache
}

// NewGetCompletionHandler creates a new handler. The cache may be nil.
func NewGetCompletionHandler(procesos proceso.Repository, recursos recurso.Repository, cache CompletionCache) *GetCompletionHandler {
	return &GetCompletionHandler{procesos: procesos, recursos: recursos, cache: cache}
}

// Handle executes the query.
func (h *GetCompletionHandler) Handle(ctx context.Context, q GetCompletionQuery) (*CompletionDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	p, err := h.procesos.GetByID(ctx, q.ProcesoID)
	if err != nil {
		return nil, err
	}

	if q.Actor.Rol == shared.RolEstudiante && !q.Actor.IsOwner(p.EstudianteID) {
		return nil, shared.NewDomainError("query", "GetCompletion", shared.ErrForbidden,
			"students can only read their own completion")
	}

	if h.cache != nil && !q.SkipCache {
		if dto, ok := h.cache.Get(ctx, p.ID); ok {
			return dto, nil
		}
	}

	dto, err := h.build(ctx, p)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		_ = h.cache.Set(ctx, p.ID, dto)
	}
	return dto, nil
}

// build recomputes the aggregation from storage.
func (h *GetCompletionHandler) build(ctx context.Context, p *proceso.ProcesoPracticas) (*CompletionDTO, error) {
	// Fixed section order; the certificado tab only exists for consultorías.
	type seccionRef struct {
		nombre string
		id     string
	}
	refs := []seccionRef{
		{"arl", p.ArlID},
		{"atlas_docente", p.AtlasDocenteID},
		{"atlas_estudiante", p.AtlasEstudianteID},
		{"atlas_obras", p.AtlasObrasID},
	}
	if p.EsConsultoria {
		refs = append(refs, seccionRef{"certificado", p.CertificadoID})
	}

	ids := make([]string, 0, len(refs)+len(p.AnexoIDs))
	for _, ref := range refs {
		if ref.id != "" {
			ids = append(ids, ref.id)
		}
	}
	ids = append(ids, p.AnexoIDs...)

	resueltos, err := h.recursos.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	dto := &CompletionDTO{
		ProcesoID:    p.ID,
		EstudianteID: p.EstudianteID,
		GrupoID:      p.GrupoID,
		GeneratedAt:  time.Now().UTC(),
	}

	for _, ref := range refs {
		dto.Secciones = append(dto.Secciones, clasificarRef(ref.nombre, ref.id, resueltos))
	}
	for _, anexoID := range p.AnexoIDs {
		dto.Anexos = append(dto.Anexos, clasificarRef("anexo", anexoID, resueltos))
	}

	for _, s := range dto.Secciones {
		dto.contar(s.Semaforo)
	}
	for _, a := range dto.Anexos {
		dto.contar(a.Semaforo)
	}
	return dto, nil
}

func (d *CompletionDTO) contar(semaforo string) {
	d.Total++
	switch recurso.Semaforo(semaforo) {
	case recurso.SemaforoVerde:
		d.Verdes++
	case recurso.SemaforoAmarillo:
		d.Amarillos++
	default:
		d.Rojos++
	}
}

// clasificarRef classifies one reference. A nil resource (no id, or an id
// that no longer resolves) degrades to rojo through the nil-safe Clasificar.
func clasificarRef(nombre, id string, resueltos map[string]*recurso.Recurso) SeccionSemaforoDTO {
	var r *recurso.Recurso
	if id != "" {
		r = resueltos[id]
	}

	out := SeccionSemaforoDTO{
		Seccion:   nombre,
		RecursoID: id,
		Semaforo:  string(r.Clasificar()),
		Entregado: r.Entregado(),
	}
	if r != nil {
		out.Titulo = r.Titulo
		out.Nota = r.Nota
	}
	return out
}
