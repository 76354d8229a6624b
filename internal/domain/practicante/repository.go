package practicante

import (
	"context"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACE
// El contrato con el almacenamiento; la implementación vive en
// infrastructure/persistence/postgres.
// ══════════════════════════════════════════════════════════════════════════════

// Repository define las operaciones de persistencia del practicante.
type Repository interface {
	// Create crea la preinscripción. Devuelve ErrDocumentoDuplicado si ya
	// existe un registro con el mismo documento (la unicidad la garantiza
	// un índice único, no un check-then-insert).
	Create(ctx context.Context, p *Practicante) error

	// GetByID devuelve el practicante por ID interno.
	// Devuelve ErrPracticanteNotFound si no existe.
	GetByID(ctx context.Context, id string) (*Practicante, error)

	// GetByDocumento devuelve el practicante por documento de identidad.
	GetByDocumento(ctx context.Context, doc shared.DocumentoIdentidad) (*Practicante, error)

	// Update persiste el registro completo en una sola escritura atómica.
	Update(ctx context.Context, p *Practicante) error

	// List devuelve practicantes filtrados por estado (estado vacío = todos).
	List(ctx context.Context, estado Estado, limit, offset int) ([]*Practicante, error)

	// CountByEstado cuenta practicantes por estado, para el tablero.
	CountByEstado(ctx context.Context) (map[Estado]int, error)
}
