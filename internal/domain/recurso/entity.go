// Package recurso contiene el modelo del documento adjuntable genérico
// (ARL, ATLAS, seguimientos, anexos, certificados) con su propio estado de
// verificación, independiente de la etapa del pipeline padre.
package recurso

import (
	"fmt"
	"strings"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS (discriminante de la unión etiquetada)
// ══════════════════════════════════════════════════════════════════════════════

// Tipo es el discriminante del recurso. Una sola colección física guarda
// todos los tipos; el discriminante mantiene la agregación exhaustiva.
type Tipo string

const (
	TipoARL            Tipo = "arl"
	TipoAtlas          Tipo = "atlas"
	TipoSeguimiento    Tipo = "seguimiento"
	TipoEvaluacion     Tipo = "evaluacion"
	TipoAutoevaluacion Tipo = "autoevaluacion"
	TipoCertificado    Tipo = "certificado"
	TipoAnexo          Tipo = "anexo"
)

// IsValid verifica que el tipo sea uno de los valores cerrados.
func (t Tipo) IsValid() bool {
	switch t {
	case TipoARL, TipoAtlas, TipoSeguimiento, TipoEvaluacion,
		TipoAutoevaluacion, TipoCertificado, TipoAnexo:
		return true
	default:
		return false
	}
}

// String devuelve la representación en texto.
func (t Tipo) String() string {
	return string(t)
}

// Subtipo distingue las tres variantes de documento ATLAS. Vacío para los
// demás tipos.
type Subtipo string

const (
	SubtipoNinguno                Subtipo = ""
	SubtipoAutorizacionDocente    Subtipo = "autorizacion_docente"
	SubtipoAutorizacionEstudiante Subtipo = "autorizacion_estudiante"
	SubtipoRelacionObras          Subtipo = "relacion_obras"
)

// IsValidFor verifica la coherencia tipo/subtipo: solo ATLAS lleva subtipo.
func (s Subtipo) IsValidFor(t Tipo) bool {
	if t == TipoAtlas {
		return s == SubtipoAutorizacionDocente || s == SubtipoAutorizacionEstudiante || s == SubtipoRelacionObras
	}
	return s == SubtipoNinguno
}

// EstadoVerificacion es el estado propio del recurso, ortogonal a la etapa
// del pipeline al que pertenece su proceso.
type EstadoVerificacion string

const (
	VerificacionPendiente EstadoVerificacion = "pendiente"
	VerificacionValidado  EstadoVerificacion = "validado"
	VerificacionRechazado EstadoVerificacion = "rechazado"
)

// IsValid verifica que el estado sea uno de los valores cerrados.
func (e EstadoVerificacion) IsValid() bool {
	switch e {
	case VerificacionPendiente, VerificacionValidado, VerificacionRechazado:
		return true
	default:
		return false
	}
}

// Semaforo clasifica un recurso para los tableros: rojo (sin entrega),
// amarillo (entregado pero sin nota o sin validar), verde (completo).
type Semaforo string

const (
	SemaforoRojo     Semaforo = "rojo"
	SemaforoAmarillo Semaforo = "amarillo"
	SemaforoVerde    Semaforo = "verde"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENTIDAD PRINCIPAL
// ══════════════════════════════════════════════════════════════════════════════

// Recurso es el documento adjuntable genérico. El almacén de recursos es su
// único dueño: los procesos guardan referencias débiles (ids).
type Recurso struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// Tipo / Subtipo - discriminante de la unión.
	Tipo    Tipo
	Subtipo Subtipo

	// Titulo - nombre visible (obligatorio para anexos).
	Titulo string

	// URL - referencia opaca al archivo entregado. Vacía = sin entrega.
	URL string

	// ContentType / Size - metadatos del archivo reportados por el almacén.
	ContentType string
	Size        int64

	// Nota - calificación 0-5; nil = sin calificar (nunca se trata como 0).
	Nota *float64

	// NotasAdicionales - observaciones libres del revisor.
	NotasAdicionales string

	// Estado - verificación propia del recurso.
	Estado EstadoVerificacion

	// CreatedAt / UpdatedAt - marcas de tiempo del registro.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORES DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrRecursoNotFound - el recurso no existe.
	ErrRecursoNotFound = shared.NewDomainError("recurso", "Find", shared.ErrNotFound, "recurso not found")

	// ErrTipoInvalido - tipo desconocido o subtipo incoherente.
	ErrTipoInvalido = shared.NewDomainError("recurso", "New", shared.ErrInvalidInput, "invalid recurso tipo/subtipo")

	// ErrNotaFueraDeRango - la nota debe estar entre 0 y 5.
	ErrNotaFueraDeRango = shared.NewDomainError("recurso", "Calificar", shared.ErrValueOutOfRange, "nota must be between 0 and 5")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// NewRecurso crea un recurso en estado pendiente y sin entrega.
func NewRecurso(id string, tipo Tipo, subtipo Subtipo, titulo string) (*Recurso, error) {
	if id == "" {
		return nil, shared.NewDomainError("recurso", "New", shared.ErrInvalidID, "id is required")
	}
	if !tipo.IsValid() || !subtipo.IsValidFor(tipo) {
		return nil, ErrTipoInvalido
	}
	if tipo == TipoAnexo && strings.TrimSpace(titulo) == "" {
		return nil, shared.NewDomainError("recurso", "New", shared.ErrEmptyValue, "anexo requires a titulo")
	}

	now := time.Now().UTC()
	return &Recurso{
		ID:        id,
		Tipo:      tipo,
		Subtipo:   subtipo,
		Titulo:    strings.TrimSpace(titulo),
		Estado:    VerificacionPendiente,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MÉTODOS DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

// ActualizarEntrega registra una nueva entrega. Cualquier entrega reinicia la
// verificación a pendiente: lo entregado debe revisarse de nuevo.
func (r *Recurso) ActualizarEntrega(url, contentType string, size int64) {
	r.URL = strings.TrimSpace(url)
	r.ContentType = contentType
	r.Size = size
	r.Estado = VerificacionPendiente
	r.UpdatedAt = time.Now().UTC()
}

// Calificar asigna la nota del recurso. nil borra la calificación.
func (r *Recurso) Calificar(nota *float64, notasAdicionales string) error {
	if nota != nil {
		if _, err := shared.NewNota(*nota); err != nil {
			return ErrNotaFueraDeRango
		}
	}
	r.Nota = nota
	r.NotasAdicionales = strings.TrimSpace(notasAdicionales)
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Validar marca el recurso como validado.
func (r *Recurso) Validar() {
	r.Estado = VerificacionValidado
	r.UpdatedAt = time.Now().UTC()
}

// Rechazar marca el recurso como rechazado.
func (r *Recurso) Rechazar(notasAdicionales string) {
	r.Estado = VerificacionRechazado
	if strings.TrimSpace(notasAdicionales) != "" {
		r.NotasAdicionales = strings.TrimSpace(notasAdicionales)
	}
	r.UpdatedAt = time.Now().UTC()
}

// Clasificar devuelve el semáforo del recurso. Tolera sub-objetos parciales:
// nunca falla, degrada a rojo.
//   - rojo: sin URL (nada entregado), sin importar nota o estado.
//   - amarillo: con URL pero sin nota o sin validar.
//   - verde: con URL, con nota y validado.
func (r *Recurso) Clasificar() Semaforo {
	if r == nil || r.URL == "" {
		return SemaforoRojo
	}
	if r.Nota == nil || r.Estado != VerificacionValidado {
		return SemaforoAmarillo
	}
	return SemaforoVerde
}

// Entregado indica si el recurso tiene una entrega registrada.
func (r *Recurso) Entregado() bool {
	return r != nil && r.URL != ""
}

// String devuelve una representación corta para logs.
func (r *Recurso) String() string {
	return fmt.Sprintf("Recurso{ID: %s, Tipo: %s, Estado: %s}", r.ID, r.Tipo, r.Estado)
}
