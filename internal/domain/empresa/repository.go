package empresa

import (
	"context"
)

// Repository define las operaciones de persistencia de la solicitud.
// La implementación vive en infrastructure/persistence/postgres.
type Repository interface {
	// Create guarda una solicitud nueva.
	Create(ctx context.Context, s *SolicitudEmpresa) error

	// GetByID devuelve la solicitud por ID.
	// Devuelve ErrSolicitudNotFound si no existe.
	GetByID(ctx context.Context, id string) (*SolicitudEmpresa, error)

	// Update persiste la solicitud completa en una sola escritura atómica.
	Update(ctx context.Context, s *SolicitudEmpresa) error

	// List devuelve solicitudes filtradas por estado (estado vacío = todas).
	List(ctx context.Context, estado Estado, limit, offset int) ([]*SolicitudEmpresa, error)
}
