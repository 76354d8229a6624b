package recurso

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementaciones en infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository define las operaciones de persistencia del recurso genérico.
type Repository interface {
	// Create guarda un recurso nuevo.
	Create(ctx context.Context, r *Recurso) error

	// GetByID devuelve el recurso por ID.
	// Devuelve ErrRecursoNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Recurso, error)

	// GetByIDs devuelve los recursos existentes entre los ids dados. Los ids
	// que no resuelven simplemente se omiten: la agregación los trata como
	// "sin entrega", nunca como error.
	GetByIDs(ctx context.Context, ids []string) (map[string]*Recurso, error)

	// Update persiste el recurso completo en una sola escritura atómica.
	Update(ctx context.Context, r *Recurso) error

	// Delete elimina el recurso. Solo lo invocan operaciones que poseen el
	// recurso en relación 1:1 (p. ej. el ARL de un proceso eliminado).
	Delete(ctx context.Context, id string) error
}

// SeguimientoRepository define la persistencia de seguimientos y entradas.
type SeguimientoRepository interface {
	// Create guarda el seguimiento con todas sus entradas en una sola
	// transacción.
	Create(ctx context.Context, s *SeguimientoGrupo) error

	// GetByID devuelve el seguimiento con sus entradas ordenadas.
	GetByID(ctx context.Context, id string) (*SeguimientoGrupo, error)

	// ListByGrupo devuelve los seguimientos de un grupo.
	ListByGrupo(ctx context.Context, grupoID string) ([]*SeguimientoGrupo, error)

	// ListByEstudiante devuelve los seguimientos que tienen entrada para el
	// estudiante dado.
	ListByEstudiante(ctx context.Context, estudianteID string) ([]*SeguimientoGrupo, error)

	// Delete elimina el seguimiento y sus entradas en la misma transacción.
	// Los recursos referenciados quedan huérfanos de forma controlada: sin
	// entradas no hay referencia visible para la agregación.
	Delete(ctx context.Context, id string) error
}
