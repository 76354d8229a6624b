package proceso

import (
	"context"
)

// Repository define la persistencia del proceso de prácticas.
// La implementación vive en infrastructure/persistence/postgres.
type Repository interface {
	// Create guarda un proceso nuevo. Devuelve ErrProcesoDuplicado si ya
	// existe uno para el par (estudiante, grupo); la unicidad la garantiza
	// un índice único en el almacén, no un check-then-insert.
	Create(ctx context.Context, p *ProcesoPracticas) error

	// GetByID devuelve el proceso por ID.
	// Devuelve ErrProcesoNotFound si no existe.
	GetByID(ctx context.Context, id string) (*ProcesoPracticas, error)

	// GetByEstudianteGrupo devuelve el proceso del par, si existe.
	GetByEstudianteGrupo(ctx context.Context, estudianteID, grupoID string) (*ProcesoPracticas, error)

	// Update persiste el proceso completo en una sola escritura atómica.
	Update(ctx context.Context, p *ProcesoPracticas) error

	// ListByGrupo devuelve los procesos de un grupo.
	ListByGrupo(ctx context.Context, grupoID string) ([]*ProcesoPracticas, error)
}
