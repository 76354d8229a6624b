package command

import (
	"context"
	"sync"

	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// In-memory fakes for the command handler tests. They mirror the storage
// contracts, including the uniqueness guarantees the real repositories get
// from unique indexes.

// ─── Event bus ───────────────────────────────────────────────────────────────

type fakeBus struct {
	mu     sync.Mutex
	events []shared.Event
}

func (b *fakeBus) Publish(event shared.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return nil
}

func (b *fakeBus) types() []shared.EventType {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]shared.EventType, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.EventType())
	}
	return out
}

func (b *fakeBus) has(t shared.EventType) bool {
	for _, et := range b.types() {
		if et == t {
			return true
		}
	}
	return false
}

// ─── Practicante ─────────────────────────────────────────────────────────────

type fakePracticanteRepo struct {
	mu    sync.Mutex
	items map[string]*practicante.Practicante
}

func newFakePracticanteRepo() *fakePracticanteRepo {
	return &fakePracticanteRepo{items: make(map[string]*practicante.Practicante)}
}

func (r *fakePracticanteRepo) Create(_ context.Context, p *practicante.Practicante) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.Documento == p.Documento {
			return practicante.ErrDocumentoDuplicado
		}
	}
	r.items[p.ID] = p.Clone()
	return nil
}

func (r *fakePracticanteRepo) GetByID(_ context.Context, id string) (*practicante.Practicante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, practicante.ErrPracticanteNotFound
	}
	return p.Clone(), nil
}

func (r *fakePracticanteRepo) GetByDocumento(_ context.Context, doc shared.DocumentoIdentidad) (*practicante.Practicante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Documento == doc {
			return p.Clone(), nil
		}
	}
	return nil, practicante.ErrPracticanteNotFound
}

func (r *fakePracticanteRepo) Update(_ context.Context, p *practicante.Practicante) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return practicante.ErrPracticanteNotFound
	}
	r.items[p.ID] = p.Clone()
	return nil
}

func (r *fakePracticanteRepo) List(_ context.Context, estado practicante.Estado, _, _ int) ([]*practicante.Practicante, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*practicante.Practicante
	for _, p := range r.items {
		if estado == "" || p.Estado == estado {
			out = append(out, p.Clone())
		}
	}
	return out, nil
}

func (r *fakePracticanteRepo) CountByEstado(_ context.Context) (map[practicante.Estado]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[practicante.Estado]int)
	for _, p := range r.items {
		out[p.Estado]++
	}
	return out, nil
}

// fakeCuentas persists the advanced record and remembers the password, which
// stands in for the account row of the real transactional implementation.
type fakeCuentas struct {
	repo      *fakePracticanteRepo
	passwords map[string]string
	failWith  error
}

func newFakeCuentas(repo *fakePracticanteRepo) *fakeCuentas {
	return &fakeCuentas{repo: repo, passwords: make(map[string]string)}
}

func (c *fakeCuentas) CrearCuentaYAvanzar(ctx context.Context, p *practicante.Practicante, password string) error {
	if c.failWith != nil {
		return c.failWith
	}
	if err := c.repo.Update(ctx, p); err != nil {
		return err
	}
	c.passwords[p.EmailInstitucional.String()] = password
	return nil
}

// ─── Solicitud de empresa ────────────────────────────────────────────────────

type fakeSolicitudRepo struct {
	mu    sync.Mutex
	items map[string]*empresa.SolicitudEmpresa
}

func newFakeSolicitudRepo() *fakeSolicitudRepo {
	return &fakeSolicitudRepo{items: make(map[string]*empresa.SolicitudEmpresa)}
}

func copySolicitud(s *empresa.SolicitudEmpresa) *empresa.SolicitudEmpresa {
	c := *s
	c.Practicantes = append([]empresa.PracticanteSolicitado(nil), s.Practicantes...)
	return &c
}

func (r *fakeSolicitudRepo) Create(_ context.Context, s *empresa.SolicitudEmpresa) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = copySolicitud(s)
	return nil
}

func (r *fakeSolicitudRepo) GetByID(_ context.Context, id string) (*empresa.SolicitudEmpresa, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, empresa.ErrSolicitudNotFound
	}
	return copySolicitud(s), nil
}

func (r *fakeSolicitudRepo) Update(_ context.Context, s *empresa.SolicitudEmpresa) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[s.ID]; !ok {
		return empresa.ErrSolicitudNotFound
	}
	r.items[s.ID] = copySolicitud(s)
	return nil
}

func (r *fakeSolicitudRepo) List(_ context.Context, estado empresa.Estado, _, _ int) ([]*empresa.SolicitudEmpresa, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*empresa.SolicitudEmpresa
	for _, s := range r.items {
		if estado == "" || s.Estado == estado {
			out = append(out, copySolicitud(s))
		}
	}
	return out, nil
}

// ─── Proceso ─────────────────────────────────────────────────────────────────

type fakeProcesoRepo struct {
	mu    sync.Mutex
	items map[string]*proceso.ProcesoPracticas
}

func newFakeProcesoRepo() *fakeProcesoRepo {
	return &fakeProcesoRepo{items: make(map[string]*proceso.ProcesoPracticas)}
}

func copyProceso(p *proceso.ProcesoPracticas) *proceso.ProcesoPracticas {
	c := *p
	c.AnexoIDs = append([]string(nil), p.AnexoIDs...)
	return &c
}

func (r *fakeProcesoRepo) Create(_ context.Context, p *proceso.ProcesoPracticas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.items {
		if existing.EstudianteID == p.EstudianteID && existing.GrupoID == p.GrupoID {
			return proceso.ErrProcesoDuplicado
		}
	}
	r.items[p.ID] = copyProceso(p)
	return nil
}

func (r *fakeProcesoRepo) GetByID(_ context.Context, id string) (*proceso.ProcesoPracticas, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.items[id]
	if !ok {
		return nil, proceso.ErrProcesoNotFound
	}
	return copyProceso(p), nil
}

func (r *fakeProcesoRepo) GetByEstudianteGrupo(_ context.Context, estudianteID, grupoID string) (*proceso.ProcesoPracticas, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.EstudianteID == estudianteID && p.GrupoID == grupoID {
			return copyProceso(p), nil
		}
	}
	return nil, proceso.ErrProcesoNotFound
}

func (r *fakeProcesoRepo) Update(_ context.Context, p *proceso.ProcesoPracticas) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return proceso.ErrProcesoNotFound
	}
	r.items[p.ID] = copyProceso(p)
	return nil
}

func (r *fakeProcesoRepo) ListByGrupo(_ context.Context, grupoID string) ([]*proceso.ProcesoPracticas, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*proceso.ProcesoPracticas
	for _, p := range r.items {
		if p.GrupoID == grupoID {
			out = append(out, copyProceso(p))
		}
	}
	return out, nil
}

// ─── Recurso ─────────────────────────────────────────────────────────────────

type fakeRecursoRepo struct {
	mu    sync.Mutex
	items map[string]*recurso.Recurso
}

func newFakeRecursoRepo() *fakeRecursoRepo {
	return &fakeRecursoRepo{items: make(map[string]*recurso.Recurso)}
}

func copyRecurso(r *recurso.Recurso) *recurso.Recurso {
	c := *r
	return &c
}

func (r *fakeRecursoRepo) Create(_ context.Context, rec *recurso.Recurso) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rec.ID]; ok {
		return shared.NewDomainError("recurso", "Create", shared.ErrConflict, "duplicate id")
	}
	r.items[rec.ID] = copyRecurso(rec)
	return nil
}

func (r *fakeRecursoRepo) GetByID(_ context.Context, id string) (*recurso.Recurso, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.items[id]
	if !ok {
		return nil, recurso.ErrRecursoNotFound
	}
	return copyRecurso(rec), nil
}

func (r *fakeRecursoRepo) GetByIDs(_ context.Context, ids []string) (map[string]*recurso.Recurso, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*recurso.Recurso)
	for _, id := range ids {
		if rec, ok := r.items[id]; ok {
			out[id] = copyRecurso(rec)
		}
	}
	return out, nil
}

func (r *fakeRecursoRepo) Update(_ context.Context, rec *recurso.Recurso) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[rec.ID]; !ok {
		return recurso.ErrRecursoNotFound
	}
	r.items[rec.ID] = copyRecurso(rec)
	return nil
}

func (r *fakeRecursoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// ─── Seguimiento ─────────────────────────────────────────────────────────────

type fakeSeguimientoRepo struct {
	mu    sync.Mutex
	items map[string]*recurso.SeguimientoGrupo
}

func newFakeSeguimientoRepo() *fakeSeguimientoRepo {
	return &fakeSeguimientoRepo{items: make(map[string]*recurso.SeguimientoGrupo)}
}

func copySeguimiento(s *recurso.SeguimientoGrupo) *recurso.SeguimientoGrupo {
	c := *s
	c.Entradas = append([]recurso.EntradaSeguimiento(nil), s.Entradas...)
	return &c
}

func (r *fakeSeguimientoRepo) Create(_ context.Context, s *recurso.SeguimientoGrupo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[s.ID] = copySeguimiento(s)
	return nil
}

func (r *fakeSeguimientoRepo) GetByID(_ context.Context, id string) (*recurso.SeguimientoGrupo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.items[id]
	if !ok {
		return nil, recurso.ErrSeguimientoNotFound
	}
	return copySeguimiento(s), nil
}

func (r *fakeSeguimientoRepo) ListByGrupo(_ context.Context, grupoID string) ([]*recurso.SeguimientoGrupo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*recurso.SeguimientoGrupo
	for _, s := range r.items {
		if s.GrupoID == grupoID {
			out = append(out, copySeguimiento(s))
		}
	}
	return out, nil
}

func (r *fakeSeguimientoRepo) ListByEstudiante(_ context.Context, estudianteID string) ([]*recurso.SeguimientoGrupo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*recurso.SeguimientoGrupo
	for _, s := range r.items {
		if _, ok := s.EntradaDe(estudianteID); ok {
			out = append(out, copySeguimiento(s))
		}
	}
	return out, nil
}

func (r *fakeSeguimientoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return recurso.ErrSeguimientoNotFound
	}
	delete(r.items, id)
	return nil
}

// ─── Transactional helpers ───────────────────────────────────────────────────

type fakeAttacher struct {
	procesos *fakeProcesoRepo
	recursos *fakeRecursoRepo
}

func (a *fakeAttacher) CrearYVincular(ctx context.Context, p *proceso.ProcesoPracticas, r *recurso.Recurso) error {
	if err := a.recursos.Create(ctx, r); err != nil {
		return err
	}
	return a.procesos.Update(ctx, p)
}

type fakeSeguimientoCreator struct {
	seguimientos *fakeSeguimientoRepo
	recursos     *fakeRecursoRepo
}

func (c *fakeSeguimientoCreator) CrearConRecursos(ctx context.Context, s *recurso.SeguimientoGrupo, recursos []*recurso.Recurso) error {
	for _, r := range recursos {
		if err := c.recursos.Create(ctx, r); err != nil {
			return err
		}
	}
	return c.seguimientos.Create(ctx, s)
}

// ─── Small helpers ───────────────────────────────────────────────────────────

func fp(v float64) *float64 { return &v }

func sp(s string) *string { return &s }
