// Package proceso contiene el registro de práctica por estudiante y grupo:
// evaluación, referencias a recursos (ARL, ATLAS, anexos, certificado) y la
// bandera de consultoría. Existe exactamente un proceso por par
// (estudiante, grupo); la unicidad la garantiza el almacenamiento.
package proceso

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SECCIONES
// ══════════════════════════════════════════════════════════════════════════════

// Seccion identifica la parte del proceso que se está escribiendo. La
// autorización por sección depende del rol: los estudiantes solo escriben
// autoevaluación y sus propias entregas de seguimiento.
type Seccion string

const (
	SeccionEvaluacion     Seccion = "evaluacion"
	SeccionSeguimiento    Seccion = "seguimiento"
	SeccionAutoevaluacion Seccion = "autoevaluacion"
	SeccionARL            Seccion = "arl"
	SeccionAtlas          Seccion = "atlas"
	SeccionAnexos         Seccion = "anexos"
	SeccionCertificado    Seccion = "certificado"
)

// IsValid verifica que la sección sea una de las conocidas.
func (s Seccion) IsValid() bool {
	switch s {
	case SeccionEvaluacion, SeccionSeguimiento, SeccionAutoevaluacion,
		SeccionARL, SeccionAtlas, SeccionAnexos, SeccionCertificado:
		return true
	default:
		return false
	}
}

// WritableByStudent indica si un estudiante puede escribir la sección (sobre
// su propio proceso). El resto exige rol de funcionario.
func (s Seccion) WritableByStudent() bool {
	return s == SeccionAutoevaluacion || s == SeccionSeguimiento
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUACIÓN
// ══════════════════════════════════════════════════════════════════════════════

// NumNotas es la cantidad fija de calificaciones de la evaluación.
const NumNotas = 4

// Evaluacion agrupa hasta cuatro notas, un enlace de soporte y observaciones.
// El promedio jamás se almacena: se recalcula en cada lectura.
type Evaluacion struct {
	// Notas - hasta cuatro calificaciones 0-5; nil = sin calificar.
	Notas [NumNotas]*float64

	// Enlace - soporte de la evaluación (acta, rúbrica).
	Enlace string

	// Observaciones - texto libre del evaluador.
	Observaciones string
}

// PromedioNotas calcula el promedio de las notas no nulas, redondeado a dos
// decimales. Devuelve nil cuando todas son nulas: una nota ausente nunca
// cuenta como cero.
func PromedioNotas(notas []*float64) *float64 {
	sum := 0.0
	n := 0
	for _, nota := range notas {
		if nota == nil {
			continue
		}
		sum += *nota
		n++
	}
	if n == 0 {
		return nil
	}
	avg := math.Round(sum/float64(n)*100) / 100
	return &avg
}

// Promedio devuelve el promedio recalculado de la evaluación.
func (e Evaluacion) Promedio() *float64 {
	return PromedioNotas(e.Notas[:])
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTIDAD PRINCIPAL
// ══════════════════════════════════════════════════════════════════════════════

// ProcesoPracticas es el registro de práctica de un estudiante en un grupo.
// Guarda referencias débiles (ids) a los recursos: eliminarlo no elimina
// recursos que otros registros aún usan.
type ProcesoPracticas struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// EstudianteID / GrupoID - el par único que identifica el proceso.
	EstudianteID string
	GrupoID      string

	// ArlID - recurso ARL (1:1 con el proceso).
	ArlID string

	// CertificadoID - recurso de certificado; su pestaña solo es visible
	// cuando EsConsultoria está activa.
	CertificadoID string

	// AtlasDocenteID / AtlasEstudianteID / AtlasObrasID - los tres
	// documentos ATLAS.
	AtlasDocenteID    string
	AtlasEstudianteID string
	AtlasObrasID      string

	// AnexoIDs - anexos libres, en orden de adjunción.
	AnexoIDs []string

	// Evaluacion - sub-objeto de calificaciones.
	Evaluacion Evaluacion

	// Autoevaluacion - texto libre del estudiante.
	Autoevaluacion string

	// EsConsultoria - true cuando la práctica es una consultoría.
	EsConsultoria bool

	// CreatedAt / UpdatedAt - marcas de tiempo del registro.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORES DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrProcesoNotFound - el proceso no existe.
	ErrProcesoNotFound = shared.NewDomainError("proceso", "Find", shared.ErrNotFound, "proceso not found")

	// ErrProcesoDuplicado - ya existe un proceso para (estudiante, grupo).
	// Conflicto reintenable: el registro ganador ya está en el almacén.
	ErrProcesoDuplicado = shared.NewDomainError("proceso", "Create", shared.ErrConflict, "proceso already exists for this (estudiante, grupo) pair")

	// ErrIndiceNota - índice de nota fuera de 0..3.
	ErrIndiceNota = shared.NewDomainError("proceso", "SetNota", shared.ErrValueOutOfRange, "nota index out of range")

	// ErrSeccionDesconocida - sección no reconocida.
	ErrSeccionDesconocida = shared.NewDomainError("proceso", "UpdateSection", shared.ErrInvalidInput, "unknown section")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY
// ══════════════════════════════════════════════════════════════════════════════

// NewProceso crea un proceso vacío para el par (estudiante, grupo).
func NewProceso(id, estudianteID, grupoID string) (*ProcesoPracticas, error) {
	if id == "" || estudianteID == "" || grupoID == "" {
		return nil, shared.NewDomainError("proceso", "New", shared.ErrInvalidID,
			"id, estudiante id and grupo id are required")
	}

	now := time.Now().UTC()
	return &ProcesoPracticas{
		ID:           id,
		EstudianteID: estudianteID,
		GrupoID:      grupoID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MÉTODOS DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

// SetNota escribe la nota idx (0..3). nil borra la calificación; un valor se
// valida contra la escala 0-5.
func (p *ProcesoPracticas) SetNota(idx int, nota *float64) error {
	if idx < 0 || idx >= NumNotas {
		return ErrIndiceNota
	}
	if nota != nil {
		if _, err := shared.NewNota(*nota); err != nil {
			return err
		}
	}
	p.Evaluacion.Notas[idx] = nota
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// SetAutoevaluacion escribe el texto de autoevaluación.
func (p *ProcesoPracticas) SetAutoevaluacion(texto string) {
	p.Autoevaluacion = strings.TrimSpace(texto)
	p.UpdatedAt = time.Now().UTC()
}

// SetRecurso asigna el recurso de una sección 1:1 (arl, atlas por subtipo,
// certificado). Los anexos usan AgregarAnexo.
func (p *ProcesoPracticas) SetRecurso(seccion Seccion, subtipoAtlas, recursoID string) error {
	switch seccion {
	case SeccionARL:
		p.ArlID = recursoID
	case SeccionCertificado:
		p.CertificadoID = recursoID
	case SeccionAtlas:
		switch subtipoAtlas {
		case "autorizacion_docente":
			p.AtlasDocenteID = recursoID
		case "autorizacion_estudiante":
			p.AtlasEstudianteID = recursoID
		case "relacion_obras":
			p.AtlasObrasID = recursoID
		default:
			return shared.NewDomainError("proceso", "SetRecurso", shared.ErrInvalidInput,
				"unknown atlas subtipo: "+subtipoAtlas)
		}
	default:
		return ErrSeccionDesconocida
	}
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// AgregarAnexo añade la referencia de un anexo al final de la lista.
func (p *ProcesoPracticas) AgregarAnexo(recursoID string) error {
	if recursoID == "" {
		return shared.NewDomainError("proceso", "AgregarAnexo", shared.ErrInvalidID, "recurso id is required")
	}
	for _, id := range p.AnexoIDs {
		if id == recursoID {
			return shared.NewDomainError("proceso", "AgregarAnexo", shared.ErrConflict, "anexo already attached")
		}
	}
	p.AnexoIDs = append(p.AnexoIDs, recursoID)
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// ToggleConsultoria invierte la bandera de consultoría y devuelve el nuevo
// valor. La bandera controla la visibilidad externa de la pestaña de
// certificado.
func (p *ProcesoPracticas) ToggleConsultoria() bool {
	p.EsConsultoria = !p.EsConsultoria
	p.UpdatedAt = time.Now().UTC()
	return p.EsConsultoria
}

// RecursosVinculados devuelve los ids de recursos 1:1 por sección, omitiendo
// los vacíos. Los anexos van aparte (AnexoIDs).
func (p *ProcesoPracticas) RecursosVinculados() map[string]string {
	out := make(map[string]string)
	if p.ArlID != "" {
		out["arl"] = p.ArlID
	}
	if p.AtlasDocenteID != "" {
		out["atlas_docente"] = p.AtlasDocenteID
	}
	if p.AtlasEstudianteID != "" {
		out["atlas_estudiante"] = p.AtlasEstudianteID
	}
	if p.AtlasObrasID != "" {
		out["atlas_obras"] = p.AtlasObrasID
	}
	if p.CertificadoID != "" && p.EsConsultoria {
		out["certificado"] = p.CertificadoID
	}
	return out
}

// String devuelve una representación corta para logs.
func (p *ProcesoPracticas) String() string {
	return fmt.Sprintf("ProcesoPracticas{ID: %s, Estudiante: %s, Grupo: %s}", p.ID, p.EstudianteID, p.GrupoID)
}
