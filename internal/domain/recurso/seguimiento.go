package recurso

import (
	"strings"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEGUIMIENTO
// Un seguimiento pertenece a un grupo y lleva una entrada por estudiante;
// cada entrada referencia exactamente un Recurso por id. Los recursos de
// seguimiento son muchos:1 con el seguimiento, no con el proceso: las
// operaciones a nivel de proceso nunca los eliminan.
// ══════════════════════════════════════════════════════════════════════════════

// EntradaSeguimiento es la asignación de un seguimiento a un estudiante.
type EntradaSeguimiento struct {
	// ID - identificador interno.
	ID string

	// SeguimientoID - seguimiento al que pertenece.
	SeguimientoID string

	// EstudianteID - estudiante destinatario.
	EstudianteID string

	// RecursoID - recurso de tipo seguimiento donde entrega.
	RecursoID string

	// Orden - posición de la entrada dentro del seguimiento.
	Orden int
}

// SeguimientoGrupo es el corte periódico asignado a un grupo.
type SeguimientoGrupo struct {
	// ID - identificador interno.
	ID string

	// GrupoID - grupo al que se le asignó.
	GrupoID string

	// Titulo - nombre del corte (p. ej. "Seguimiento 2").
	Titulo string

	// FechaLimite - fecha límite de entrega, si aplica.
	FechaLimite *time.Time

	// Entradas - lista ordenada, una por estudiante.
	Entradas []EntradaSeguimiento

	// CreatedAt / UpdatedAt - marcas de tiempo del registro.
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	// ErrSeguimientoNotFound - el seguimiento no existe.
	ErrSeguimientoNotFound = shared.NewDomainError("seguimiento", "Find", shared.ErrNotFound, "seguimiento not found")

	// ErrEntradaDuplicada - el estudiante ya tiene entrada en este seguimiento.
	ErrEntradaDuplicada = shared.NewDomainError("seguimiento", "AgregarEntrada", shared.ErrConflict, "student already has an entry in this seguimiento")
)

// NewSeguimiento crea un seguimiento vacío para un grupo.
func NewSeguimiento(id, grupoID, titulo string, fechaLimite *time.Time) (*SeguimientoGrupo, error) {
	if id == "" || grupoID == "" {
		return nil, shared.NewDomainError("seguimiento", "New", shared.ErrInvalidID, "id and grupo id are required")
	}
	if strings.TrimSpace(titulo) == "" {
		return nil, shared.NewDomainError("seguimiento", "New", shared.ErrEmptyValue, "titulo is required")
	}

	now := time.Now().UTC()
	return &SeguimientoGrupo{
		ID:          id,
		GrupoID:     grupoID,
		Titulo:      strings.TrimSpace(titulo),
		FechaLimite: fechaLimite,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// AgregarEntrada añade la entrada de un estudiante al final de la lista.
func (s *SeguimientoGrupo) AgregarEntrada(entradaID, estudianteID, recursoID string) error {
	if entradaID == "" || estudianteID == "" || recursoID == "" {
		return shared.NewDomainError("seguimiento", "AgregarEntrada", shared.ErrInvalidID,
			"entrada, estudiante and recurso ids are required")
	}
	for _, e := range s.Entradas {
		if e.EstudianteID == estudianteID {
			return ErrEntradaDuplicada
		}
	}

	s.Entradas = append(s.Entradas, EntradaSeguimiento{
		ID:            entradaID,
		SeguimientoID: s.ID,
		EstudianteID:  estudianteID,
		RecursoID:     recursoID,
		Orden:         len(s.Entradas),
	})
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// EntradaDe devuelve la entrada del estudiante, si existe.
func (s *SeguimientoGrupo) EntradaDe(estudianteID string) (EntradaSeguimiento, bool) {
	for _, e := range s.Entradas {
		if e.EstudianteID == estudianteID {
			return e, true
		}
	}
	return EntradaSeguimiento{}, false
}
