// Package autorizacion contiene la tabla central de transiciones permitidas.
// Es la única fuente de verdad sobre quién puede mover un registro de un
// estado a otro; los handlers nunca re-derivan estas reglas por su cuenta.
package autorizacion

import (
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// Pipeline identifica la máquina de estados sobre la que se pregunta.
type Pipeline string

const (
	// PipelinePracticante - ciclo de preinscripción del estudiante.
	PipelinePracticante Pipeline = "practicante"

	// PipelineSolicitud - ciclo de revisión de solicitudes de empresa.
	PipelineSolicitud Pipeline = "solicitud"
)

// Transicion representa una arista (pipeline, from, to) de la tabla.
type Transicion struct {
	Pipeline Pipeline
	From     string
	To       string
}

// tabla es la tabla de autorización: arista -> roles que pueden recorrerla.
// Una arista ausente es ilegal para todo rol.
var tabla = map[Transicion][]shared.Rol{
	// ── Pipeline practicante ─────────────────────────────────────────────
	// Subir comprobante: el propio estudiante (o un funcionario en su nombre).
	{PipelinePracticante, "preinscrito", "pago_pendiente"}: {
		shared.RolEstudiante, shared.RolAdmin, shared.RolRegistroControl,
	},
	// Reenvío del comprobante mientras el pago sigue pendiente.
	{PipelinePracticante, "pago_pendiente", "pago_pendiente"}: {
		shared.RolEstudiante, shared.RolAdmin, shared.RolRegistroControl,
	},
	// Reingreso tras un rechazo: únicamente mediante un nuevo comprobante.
	{PipelinePracticante, "rechazado", "pago_pendiente"}: {
		shared.RolEstudiante, shared.RolAdmin, shared.RolRegistroControl,
	},
	// Validación del pago.
	{PipelinePracticante, "pago_pendiente", "pago_validado"}: {
		shared.RolAdmin, shared.RolRegistroControl,
	},
	{PipelinePracticante, "pago_pendiente", "rechazado"}: {
		shared.RolAdmin, shared.RolRegistroControl,
	},
	// Creación de la cuenta institucional: solo admin.
	{PipelinePracticante, "pago_validado", "estudiante_creado"}: {
		shared.RolAdmin,
	},

	// ── Pipeline solicitud de empresa ────────────────────────────────────
	{PipelineSolicitud, "pendiente_revision", "en_revision"}: {
		shared.RolAdmin, shared.RolDirector, shared.RolProfesor,
	},
	{PipelineSolicitud, "en_revision", "aprobada"}: {
		shared.RolAdmin, shared.RolDirector,
	},
	{PipelineSolicitud, "en_revision", "rechazada"}: {
		shared.RolAdmin, shared.RolDirector,
	},
	// Rechazo directo sin pasar por revisión.
	{PipelineSolicitud, "pendiente_revision", "rechazada"}: {
		shared.RolAdmin, shared.RolDirector,
	},
}

// CanTransition responde si el rol puede recorrer la arista (from -> to) del
// pipeline dado. Función pura: no consulta almacenamiento.
func CanTransition(rol shared.Rol, pipeline Pipeline, from, to string) bool {
	roles, ok := tabla[Transicion{Pipeline: pipeline, From: from, To: to}]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == rol {
			return true
		}
	}
	return false
}

// EdgeExists responde si la arista existe en la tabla para algún rol. Permite
// distinguir InvalidState (arista inexistente) de Forbidden (arista válida,
// rol insuficiente).
func EdgeExists(pipeline Pipeline, from, to string) bool {
	_, ok := tabla[Transicion{Pipeline: pipeline, From: from, To: to}]
	return ok
}

// AllowedSources devuelve los estados de origen desde los que se puede llegar
// a `to`. Se usa para armar mensajes de error con contexto.
func AllowedSources(pipeline Pipeline, to string) []string {
	var sources []string
	for tr := range tabla {
		if tr.Pipeline == pipeline && tr.To == to {
			sources = append(sources, tr.From)
		}
	}
	return sources
}

// Check valida la arista completa y devuelve el error de dominio apropiado:
// InvalidState si la arista no existe, Forbidden si existe pero el rol no la
// puede recorrer, nil si es legal.
func Check(rol shared.Rol, pipeline Pipeline, from, to string) error {
	if !EdgeExists(pipeline, from, to) {
		return shared.NewTransitionError(string(pipeline), from, to, AllowedSources(pipeline, to)...)
	}
	if !CanTransition(rol, pipeline, from, to) {
		return shared.NewDomainError(string(pipeline), "Check", shared.ErrForbidden,
			"role "+rol.String()+" cannot transition from "+from+" to "+to)
	}
	return nil
}
