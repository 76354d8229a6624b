package query

import (
	"context"
	"sync"

	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// In-memory fakes for the query handler tests.

type fakeProcesoRepo struct {
	items map[string]*proceso.ProcesoPracticas
}

func newFakeProcesoRepo() *fakeProcesoRepo {
	return &fakeProcesoRepo{items: make(map[string]*proceso.ProcesoPracticas)}
}

func (r *fakeProcesoRepo) Create(_ context.Context, p *proceso.ProcesoPracticas) error {
	r.items[p.ID] = p
	return nil
}

func (r *fakeProcesoRepo) GetByID(_ context.Context, id string) (*proceso.ProcesoPracticas, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, proceso.ErrProcesoNotFound
	}
	return p, nil
}

func (r *fakeProcesoRepo) GetByEstudianteGrupo(_ context.Context, estudianteID, grupoID string) (*proceso.ProcesoPracticas, error) {
	for _, p := range r.items {
		if p.EstudianteID == estudianteID && p.GrupoID == grupoID {
			return p, nil
		}
	}
	return nil, proceso.ErrProcesoNotFound
}

func (r *fakeProcesoRepo) Update(_ context.Context, p *proceso.ProcesoPracticas) error {
	r.items[p.ID] = p
	return nil
}

func (r *fakeProcesoRepo) ListByGrupo(_ context.Context, grupoID string) ([]*proceso.ProcesoPracticas, error) {
	var out []*proceso.ProcesoPracticas
	for _, p := range r.items {
		if p.GrupoID == grupoID {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRecursoRepo struct {
	items map[string]*recurso.Recurso
}

func newFakeRecursoRepo() *fakeRecursoRepo {
	return &fakeRecursoRepo{items: make(map[string]*recurso.Recurso)}
}

func (r *fakeRecursoRepo) Create(_ context.Context, rec *recurso.Recurso) error {
	r.items[rec.ID] = rec
	return nil
}

func (r *fakeRecursoRepo) GetByID(_ context.Context, id string) (*recurso.Recurso, error) {
	rec, ok := r.items[id]
	if !ok {
		return nil, recurso.ErrRecursoNotFound
	}
	return rec, nil
}

func (r *fakeRecursoRepo) GetByIDs(_ context.Context, ids []string) (map[string]*recurso.Recurso, error) {
	out := make(map[string]*recurso.Recurso)
	for _, id := range ids {
		if rec, ok := r.items[id]; ok {
			out[id] = rec
		}
	}
	return out, nil
}

func (r *fakeRecursoRepo) Update(_ context.Context, rec *recurso.Recurso) error {
	r.items[rec.ID] = rec
	return nil
}

func (r *fakeRecursoRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

type fakeSeguimientoRepo struct {
	items map[string]*recurso.SeguimientoGrupo
}

func newFakeSeguimientoRepo() *fakeSeguimientoRepo {
	return &fakeSeguimientoRepo{items: make(map[string]*recurso.SeguimientoGrupo)}
}

func (r *fakeSeguimientoRepo) Create(_ context.Context, s *recurso.SeguimientoGrupo) error {
	r.items[s.ID] = s
	return nil
}

func (r *fakeSeguimientoRepo) GetByID(_ context.Context, id string) (*recurso.SeguimientoGrupo, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, recurso.ErrSeguimientoNotFound
	}
	return s, nil
}

func (r *fakeSeguimientoRepo) ListByGrupo(_ context.Context, grupoID string) ([]*recurso.SeguimientoGrupo, error) {
	var out []*recurso.SeguimientoGrupo
	for _, s := range r.items {
		if s.GrupoID == grupoID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSeguimientoRepo) ListByEstudiante(_ context.Context, estudianteID string) ([]*recurso.SeguimientoGrupo, error) {
	var out []*recurso.SeguimientoGrupo
	for _, s := range r.items {
		if _, ok := s.EntradaDe(estudianteID); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeSeguimientoRepo) Delete(_ context.Context, id string) error {
	delete(r.items, id)
	return nil
}

type fakePracticanteRepo struct {
	items map[string]*practicante.Practicante
}

func newFakePracticanteRepo() *fakePracticanteRepo {
	return &fakePracticanteRepo{items: make(map[string]*practicante.Practicante)}
}

func (r *fakePracticanteRepo) Create(_ context.Context, p *practicante.Practicante) error {
	r.items[p.ID] = p
	return nil
}

func (r *fakePracticanteRepo) GetByID(_ context.Context, id string) (*practicante.Practicante, error) {
	p, ok := r.items[id]
	if !ok {
		return nil, practicante.ErrPracticanteNotFound
	}
	return p, nil
}

func (r *fakePracticanteRepo) GetByDocumento(_ context.Context, doc shared.DocumentoIdentidad) (*practicante.Practicante, error) {
	for _, p := range r.items {
		if p.Documento == doc {
			return p, nil
		}
	}
	return nil, practicante.ErrPracticanteNotFound
}

func (r *fakePracticanteRepo) Update(_ context.Context, p *practicante.Practicante) error {
	r.items[p.ID] = p
	return nil
}

func (r *fakePracticanteRepo) List(_ context.Context, estado practicante.Estado, _, _ int) ([]*practicante.Practicante, error) {
	var out []*practicante.Practicante
	for _, p := range r.items {
		if estado == "" || p.Estado == estado {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakePracticanteRepo) CountByEstado(_ context.Context) (map[practicante.Estado]int, error) {
	out := make(map[practicante.Estado]int)
	for _, p := range r.items {
		out[p.Estado]++
	}
	return out, nil
}

type fakeSolicitudRepo struct {
	items map[string]*empresa.SolicitudEmpresa
}

func newFakeSolicitudRepo() *fakeSolicitudRepo {
	return &fakeSolicitudRepo{items: make(map[string]*empresa.SolicitudEmpresa)}
}

func (r *fakeSolicitudRepo) Create(_ context.Context, s *empresa.SolicitudEmpresa) error {
	r.items[s.ID] = s
	return nil
}

func (r *fakeSolicitudRepo) GetByID(_ context.Context, id string) (*empresa.SolicitudEmpresa, error) {
	s, ok := r.items[id]
	if !ok {
		return nil, empresa.ErrSolicitudNotFound
	}
	return s, nil
}

func (r *fakeSolicitudRepo) Update(_ context.Context, s *empresa.SolicitudEmpresa) error {
	r.items[s.ID] = s
	return nil
}

func (r *fakeSolicitudRepo) List(_ context.Context, estado empresa.Estado, _, _ int) ([]*empresa.SolicitudEmpresa, error) {
	var out []*empresa.SolicitudEmpresa
	for _, s := range r.items {
		if estado == "" || s.Estado == estado {
			out = append(out, s)
		}
	}
	return out, nil
}

// fakeCache is a map-backed CompletionCache that counts hits.
type fakeCache struct {
	mu    sync.Mutex
	items map[string]*CompletionDTO
	hits  int
	sets  int
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]*CompletionDTO)}
}

func (c *fakeCache) Get(_ context.Context, procesoID string) (*CompletionDTO, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	dto, ok := c.items[procesoID]
	if ok {
		c.hits++
	}
	return dto, ok
}

func (c *fakeCache) Set(_ context.Context, procesoID string, dto *CompletionDTO) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[procesoID] = dto
	c.sets++
	return nil
}

func (c *fakeCache) Invalidate(_ context.Context, procesoID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, procesoID)
	return nil
}

func fp(v float64) *float64 { return &v }
