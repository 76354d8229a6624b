package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
)

// ══════════════════════════════════════════════════════════════════════════════
// REQUEST DTOS
// Structural validation happens here; the business rules stay in the command
// Validate methods and the domain.
// ══════════════════════════════════════════════════════════════════════════════

var validate = validator.New()

// decodeAndValidate decodes the JSON body into dst and runs struct validation.
func decodeAndValidate(r *http.Request, dst interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Auth
// ─────────────────────────────────────────────────────────────────────────────

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string `json:"token"`
	SubjectID string `json:"subject_id"`
	Rol       string `json:"rol"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Student pipeline
// ─────────────────────────────────────────────────────────────────────────────

type preinscripcionRequest struct {
	Documento     string `json:"documento" validate:"required"`
	Nombres       string `json:"nombres" validate:"required"`
	Apellidos     string `json:"apellidos" validate:"required"`
	EmailPersonal string `json:"email_personal" validate:"required,email"`
	Telefono      string `json:"telefono"`
	Programa      string `json:"programa" validate:"required"`
}

type validacionRequest struct {
	Decision    string `json:"decision" validate:"required,oneof=approve reject"`
	Comentarios string `json:"comentarios"`
}

type cuentaRequest struct {
	EmailInstitucional string `json:"email_institucional" validate:"required,email"`
	Password           string `json:"password" validate:"required,min=8"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Company requests
// ─────────────────────────────────────────────────────────────────────────────

type practicanteSolicitadoRequest struct {
	Perfil    string `json:"perfil" validate:"required"`
	Programa  string `json:"programa" validate:"required"`
	Cantidad  int    `json:"cantidad" validate:"required,min=1"`
	Funciones string `json:"funciones"`
}

type crearSolicitudRequest struct {
	Nit           string                         `json:"nit" validate:"required"`
	RazonSocial   string                         `json:"razon_social" validate:"required"`
	EmailContacto string                         `json:"email_contacto" validate:"required,email"`
	Telefono      string                         `json:"telefono"`
	Direccion     string                         `json:"direccion"`
	Practicantes  []practicanteSolicitadoRequest `json:"practicantes" validate:"required,min=1,dive"`
}

type decisionSolicitudRequest struct {
	Decision string `json:"decision" validate:"required,oneof=aprobada rechazada"`
	Notas    string `json:"notas"`
}

type notasSolicitudRequest struct {
	Notas string `json:"notas" validate:"required"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Proceso de prácticas
// ─────────────────────────────────────────────────────────────────────────────

type getOrCreateProcesoRequest struct {
	EstudianteID string `json:"estudiante_id" validate:"required"`
	GrupoID      string `json:"grupo_id" validate:"required"`
}

// updateSeccionRequest covers the JSON sections (evaluacion, autoevaluacion).
// File sections arrive as multipart instead. Nil means "leave unchanged".
type updateSeccionRequest struct {
	Notas          map[int]*float64 `json:"notas"`
	Enlace         *string          `json:"enlace"`
	Observaciones  *string          `json:"observaciones"`
	Autoevaluacion *string          `json:"autoevaluacion"`
}

type reviewRecursoRequest struct {
	Action           string   `json:"action" validate:"required,oneof=calificar validar rechazar"`
	Nota             *float64 `json:"nota" validate:"omitempty,min=0,max=5"`
	NotasAdicionales string   `json:"notas_adicionales"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Seguimientos
// ─────────────────────────────────────────────────────────────────────────────

type createSeguimientoRequest struct {
	Titulo        string     `json:"titulo" validate:"required"`
	FechaLimite   *time.Time `json:"fecha_limite"`
	EstudianteIDs []string   `json:"estudiante_ids" validate:"required,min=1"`
}
