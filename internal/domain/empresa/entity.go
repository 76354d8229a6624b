// Package empresa contiene el modelo de dominio de la solicitud de
// practicantes por parte de una empresa y su ciclo de revisión.
package empresa

import (
	"fmt"
	"strings"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Estado define la etapa de la solicitud dentro del ciclo de revisión.
type Estado string

const (
	// EstadoPendienteRevision - la solicitud llegó y nadie la ha tomado.
	EstadoPendienteRevision Estado = "pendiente_revision"
	// EstadoEnRevision - un director o profesor la está revisando.
	EstadoEnRevision Estado = "en_revision"
	// EstadoAprobada - decisión final positiva (terminal).
	EstadoAprobada Estado = "aprobada"
	// EstadoRechazada - decisión final negativa (terminal).
	EstadoRechazada Estado = "rechazada"
)

// IsValid verifica que el estado sea uno de los valores cerrados.
func (e Estado) IsValid() bool {
	switch e {
	case EstadoPendienteRevision, EstadoEnRevision, EstadoAprobada, EstadoRechazada:
		return true
	default:
		return false
	}
}

// IsTerminal indica si la solicitud ya fue decidida. Una solicitud terminal
// no admite ninguna transición posterior.
func (e Estado) IsTerminal() bool {
	return e == EstadoAprobada || e == EstadoRechazada
}

// String devuelve la representación en texto.
func (e Estado) String() string {
	return string(e)
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTIDADES
// ══════════════════════════════════════════════════════════════════════════════

// PracticanteSolicitado describe un perfil de practicante pedido por la
// empresa. Una solicitud trae uno o más.
type PracticanteSolicitado struct {
	// Perfil - descripción del perfil requerido.
	Perfil string

	// Programa - programa académico del que se espera el practicante.
	Programa string

	// Cantidad - cuántos practicantes de este perfil.
	Cantidad int

	// Funciones - funciones que desempeñaría.
	Funciones string
}

// SolicitudEmpresa representa la petición de una empresa y su revisión.
type SolicitudEmpresa struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// Nit - identificación tributaria de la empresa.
	Nit string

	// RazonSocial - nombre legal de la empresa.
	RazonSocial string

	// EmailContacto / Telefono / Direccion - datos de contacto.
	EmailContacto shared.Email
	Telefono      string
	Direccion     string

	// Estado - etapa actual del ciclo de revisión.
	Estado Estado

	// NotasDirector - texto libre del revisor; editable mientras la
	// solicitud no sea terminal.
	NotasDirector string

	// RevisadoPor - id del funcionario que tomó o decidió la solicitud.
	RevisadoPor string

	// FechaDecision - cuándo se decidió.
	FechaDecision *time.Time

	// Practicantes - perfiles solicitados (al menos uno).
	Practicantes []PracticanteSolicitado

	// CreatedAt / UpdatedAt - marcas de tiempo del registro.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORES DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrSolicitudNotFound - la solicitud no existe.
	ErrSolicitudNotFound = shared.NewDomainError("solicitud", "Find", shared.ErrNotFound, "solicitud not found")

	// ErrSolicitudTerminal - la solicitud ya fue decidida.
	ErrSolicitudTerminal = shared.NewDomainError("solicitud", "Transition", shared.ErrTerminalState, "solicitud already decided")

	// ErrSinPracticantes - la solicitud debe pedir al menos un perfil.
	ErrSinPracticantes = shared.NewDomainError("solicitud", "New", shared.ErrValidation, "at least one requested intern profile is required")

	// ErrDecisionInvalida - la decisión debe ser aprobada o rechazada.
	ErrDecisionInvalida = shared.NewDomainError("solicitud", "Decidir", shared.ErrInvalidInput, "decision must be aprobada or rechazada")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewSolicitudParams contiene los datos del formulario de la empresa.
type NewSolicitudParams struct {
	ID            string
	Nit           string
	RazonSocial   string
	EmailContacto shared.Email
	Telefono      string
	Direccion     string
	Practicantes  []PracticanteSolicitado
}

// NewSolicitud crea una solicitud en estado pendiente_revision.
func NewSolicitud(params NewSolicitudParams) (*SolicitudEmpresa, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("solicitud", "New", shared.ErrInvalidID, "id is required")
	}
	if strings.TrimSpace(params.Nit) == "" {
		return nil, shared.NewDomainError("solicitud", "New", shared.ErrEmptyValue, "nit is required")
	}
	if strings.TrimSpace(params.RazonSocial) == "" {
		return nil, shared.NewDomainError("solicitud", "New", shared.ErrEmptyValue, "razon social is required")
	}
	if !params.EmailContacto.IsValid() {
		return nil, shared.NewDomainError("solicitud", "New", shared.ErrInvalidFormat, "invalid contact email")
	}
	if len(params.Practicantes) == 0 {
		return nil, ErrSinPracticantes
	}
	for i, ps := range params.Practicantes {
		if strings.TrimSpace(ps.Perfil) == "" {
			return nil, shared.NewDomainError("solicitud", "New", shared.ErrEmptyValue,
				fmt.Sprintf("practicante %d: perfil is required", i+1))
		}
		if ps.Cantidad <= 0 {
			return nil, shared.NewDomainError("solicitud", "New", shared.ErrValueOutOfRange,
				fmt.Sprintf("practicante %d: cantidad must be positive", i+1))
		}
	}

	now := time.Now().UTC()

	return &SolicitudEmpresa{
		ID:            params.ID,
		Nit:           strings.TrimSpace(params.Nit),
		RazonSocial:   strings.TrimSpace(params.RazonSocial),
		EmailContacto: params.EmailContacto.Normalize(),
		Telefono:      strings.TrimSpace(params.Telefono),
		Direccion:     strings.TrimSpace(params.Direccion),
		Estado:        EstadoPendienteRevision,
		Practicantes:  params.Practicantes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MÁQUINA DE ESTADOS
// ══════════════════════════════════════════════════════════════════════════════

// IniciarRevision toma la solicitud para revisión. Solo desde
// pendiente_revision.
func (s *SolicitudEmpresa) IniciarRevision(revisor string) error {
	if s.Estado.IsTerminal() {
		return ErrSolicitudTerminal
	}
	if s.Estado != EstadoPendienteRevision {
		return shared.NewTransitionError("solicitud", s.Estado.String(), EstadoEnRevision.String(),
			EstadoPendienteRevision.String())
	}

	s.Estado = EstadoEnRevision
	s.RevisadoPor = revisor
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Decidir registra la decisión final. Permitido desde en_revision; el rechazo
// también se admite directamente desde pendiente_revision.
func (s *SolicitudEmpresa) Decidir(decision Estado, revisor, notas string) error {
	if decision != EstadoAprobada && decision != EstadoRechazada {
		return ErrDecisionInvalida
	}
	if s.Estado.IsTerminal() {
		return ErrSolicitudTerminal
	}
	if s.Estado != EstadoEnRevision &&
		!(s.Estado == EstadoPendienteRevision && decision == EstadoRechazada) {
		return shared.NewTransitionError("solicitud", s.Estado.String(), decision.String(),
			EstadoEnRevision.String())
	}

	now := time.Now().UTC()
	s.Estado = decision
	s.RevisadoPor = revisor
	s.FechaDecision = &now
	if strings.TrimSpace(notas) != "" {
		s.NotasDirector = strings.TrimSpace(notas)
	}
	s.UpdatedAt = now
	return nil
}

// ActualizarNotas edita las notas del director sin cambiar el estado.
// Permitido en cualquier estado no terminal.
func (s *SolicitudEmpresa) ActualizarNotas(notas string) error {
	if s.Estado.IsTerminal() {
		return ErrSolicitudTerminal
	}
	s.NotasDirector = strings.TrimSpace(notas)
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// TotalPracticantes suma las cantidades pedidas en todos los perfiles.
func (s *SolicitudEmpresa) TotalPracticantes() int {
	total := 0
	for _, ps := range s.Practicantes {
		total += ps.Cantidad
	}
	return total
}

// String devuelve una representación corta para logs.
func (s *SolicitudEmpresa) String() string {
	return fmt.Sprintf("SolicitudEmpresa{ID: %s, Nit: %s, Estado: %s}", s.ID, s.Nit, s.Estado)
}
