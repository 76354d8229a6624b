// Package practicante contiene el modelo de dominio del candidato a práctica
// profesional y su máquina de estados de preinscripción. Núcleo de la lógica
// de negocio: sin dependencias externas.
package practicante

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ENUMS
// ══════════════════════════════════════════════════════════════════════════════

// Estado define la etapa del practicante dentro del ciclo de preinscripción.
type Estado string

const (
	// EstadoPreinscrito - el estudiante diligenció el formulario inicial.
	EstadoPreinscrito Estado = "preinscrito"
	// EstadoPagoPendiente - subió comprobante y espera validación.
	EstadoPagoPendiente Estado = "pago_pendiente"
	// EstadoPagoValidado - el pago fue aprobado por registro y control.
	EstadoPagoValidado Estado = "pago_validado"
	// EstadoEstudianteCreado - la cuenta institucional fue creada (terminal).
	EstadoEstudianteCreado Estado = "estudiante_creado"
	// EstadoRechazado - el pago fue rechazado; reingresa solo con un nuevo comprobante.
	EstadoRechazado Estado = "rechazado"
)

// IsValid verifica que el estado sea uno de los valores cerrados.
func (e Estado) IsValid() bool {
	switch e {
	case EstadoPreinscrito, EstadoPagoPendiente, EstadoPagoValidado,
		EstadoEstudianteCreado, EstadoRechazado:
		return true
	default:
		return false
	}
}

// IsTerminal indica si ya no hay transiciones posibles desde el estado.
// Rechazado no es terminal: admite reingreso vía un nuevo comprobante.
func (e Estado) IsTerminal() bool {
	return e == EstadoEstudianteCreado
}

// String devuelve la representación en texto.
func (e Estado) String() string {
	return string(e)
}

// EstadoValidacion define el estado del sub-objeto de validación de pago.
type EstadoValidacion string

const (
	ValidacionPendiente EstadoValidacion = "pendiente"
	ValidacionAprobada  EstadoValidacion = "aprobada"
	ValidacionRechazada EstadoValidacion = "rechazada"
)

// ══════════════════════════════════════════════════════════════════════════════
// SUB-OBJETOS
// ══════════════════════════════════════════════════════════════════════════════

// ValidacionPago agrupa los datos del comprobante de pago y su revisión.
type ValidacionPago struct {
	// ComprobanteURL - referencia opaca al archivo subido (el core nunca
	// procesa bytes, solo guarda la referencia).
	ComprobanteURL string

	// ContentType y Size - metadatos reportados por el almacén de archivos.
	ContentType string
	Size        int64

	// FechaSubida - cuándo se subió el comprobante vigente.
	FechaSubida *time.Time

	// Estado - pendiente / aprobada / rechazada.
	Estado EstadoValidacion

	// ValidadoPor - id del funcionario que decidió.
	ValidadoPor string

	// FechaValidacion - cuándo se decidió.
	FechaValidacion *time.Time

	// Comentarios - obligatorios cuando la decisión es rechazo.
	Comentarios string
}

// EstudianteInfo se diligencia únicamente al crear la cuenta institucional.
// Invariante: UsuarioID está asignado si y solo si el practicante está en
// estado estudiante_creado.
type EstudianteInfo struct {
	UsuarioID     string
	FechaCreacion *time.Time
	CreadoPor     string
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTIDAD PRINCIPAL
// ══════════════════════════════════════════════════════════════════════════════

// Practicante representa al candidato desde la preinscripción hasta la
// creación de su cuenta de estudiante.
type Practicante struct {
	// ID - identificador interno (UUID en formato string).
	ID string

	// Documento - número de documento de identidad. Es la frontera de
	// idempotencia de la preinscripción: un registro por documento.
	Documento shared.DocumentoIdentidad

	// Nombres y Apellidos del candidato.
	Nombres   string
	Apellidos string

	// EmailPersonal - correo de contacto diligenciado en el formulario.
	EmailPersonal shared.Email

	// EmailInstitucional - correo @fesc.edu.co; requisito previo a la
	// creación de la cuenta.
	EmailInstitucional shared.Email

	// Telefono y Programa académico.
	Telefono string
	Programa string

	// Estado - etapa actual del ciclo.
	Estado Estado

	// ValidacionPago - sub-objeto de comprobante y revisión.
	ValidacionPago ValidacionPago

	// EstudianteInfo - diligenciado al crear la cuenta.
	EstudianteInfo EstudianteInfo

	// CreatedAt / UpdatedAt - marcas de tiempo del registro.
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ══════════════════════════════════════════════════════════════════════════════
// ERRORES DE DOMINIO
// ══════════════════════════════════════════════════════════════════════════════

var (
	// ErrPracticanteNotFound - el practicante no existe.
	ErrPracticanteNotFound = shared.NewDomainError("practicante", "Find", shared.ErrNotFound, "practicante not found")

	// ErrDocumentoDuplicado - ya existe una preinscripción con ese documento.
	ErrDocumentoDuplicado = shared.NewDomainError("practicante", "Create", shared.ErrConflict, "a preinscription with this document already exists")

	// ErrComentariosRequeridos - un rechazo exige comentarios no vacíos.
	ErrComentariosRequeridos = shared.NewDomainError("practicante", "RechazarPago", shared.ErrValidation, "rejection requires non-empty comments")

	// ErrSinEmailInstitucional - no se puede crear cuenta sin correo institucional.
	ErrSinEmailInstitucional = shared.NewDomainError("practicante", "CrearCuenta", shared.ErrPreconditionFailed, "institutional email is required before account creation")

	// ErrSinComprobante - no hay comprobante que validar.
	ErrSinComprobante = shared.NewDomainError("practicante", "ValidarPago", shared.ErrPreconditionFailed, "no payment receipt on file")

	// ErrNombreRequerido - nombres y apellidos son obligatorios.
	ErrNombreRequerido = errors.New("nombres y apellidos son obligatorios")
)

// ══════════════════════════════════════════════════════════════════════════════
// FACTORY & VALIDATION
// ══════════════════════════════════════════════════════════════════════════════

// NewPracticanteParams contiene los datos del formulario de preinscripción.
type NewPracticanteParams struct {
	ID            string
	Documento     shared.DocumentoIdentidad
	Nombres       string
	Apellidos     string
	EmailPersonal shared.Email
	Telefono      string
	Programa      string
}

// NewPracticante crea un practicante en estado preinscrito validando todos
// los campos del formulario.
func NewPracticante(params NewPracticanteParams) (*Practicante, error) {
	if params.ID == "" {
		return nil, shared.NewDomainError("practicante", "New", shared.ErrInvalidID, "id is required")
	}

	if !params.Documento.IsValid() {
		return nil, shared.NewDomainError("practicante", "New", shared.ErrInvalidFormat, "invalid document number")
	}

	nombres := strings.TrimSpace(params.Nombres)
	apellidos := strings.TrimSpace(params.Apellidos)
	if nombres == "" || apellidos == "" {
		return nil, shared.WrapError("practicante", "New", shared.ErrValidation, "missing names", ErrNombreRequerido)
	}

	if !params.EmailPersonal.IsValid() {
		return nil, shared.NewDomainError("practicante", "New", shared.ErrInvalidFormat, "invalid contact email")
	}

	if strings.TrimSpace(params.Programa) == "" {
		return nil, shared.NewDomainError("practicante", "New", shared.ErrEmptyValue, "programa is required")
	}

	now := time.Now().UTC()

	return &Practicante{
		ID:            params.ID,
		Documento:     params.Documento,
		Nombres:       nombres,
		Apellidos:     apellidos,
		EmailPersonal: params.EmailPersonal.Normalize(),
		Telefono:      strings.TrimSpace(params.Telefono),
		Programa:      strings.TrimSpace(params.Programa),
		Estado:        EstadoPreinscrito,
		ValidacionPago: ValidacionPago{
			Estado: ValidacionPendiente,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// MÁQUINA DE ESTADOS
// Los métodos validan la arista; la legalidad por rol la decide el gate de
// autorización antes de invocarlos.
// ══════════════════════════════════════════════════════════════════════════════

// transitionErr construye el error estándar para una arista ilegal.
func (p *Practicante) transitionErr(to Estado) error {
	return shared.NewTransitionError("practicante", p.Estado.String(), to.String())
}

// SubmitComprobante registra (o reemplaza) el comprobante de pago y mueve el
// registro a pago_pendiente. Permitido desde preinscrito, pago_pendiente
// (reenvío) y rechazado (reingreso).
func (p *Practicante) SubmitComprobante(url, contentType string, size int64) error {
	switch p.Estado {
	case EstadoPreinscrito, EstadoPagoPendiente, EstadoRechazado:
	default:
		return p.transitionErr(EstadoPagoPendiente)
	}

	if strings.TrimSpace(url) == "" {
		return shared.NewDomainError("practicante", "SubmitComprobante", shared.ErrEmptyValue,
			"comprobante reference is required")
	}

	now := time.Now().UTC()
	p.Estado = EstadoPagoPendiente
	p.ValidacionPago = ValidacionPago{
		ComprobanteURL: url,
		ContentType:    contentType,
		Size:           size,
		FechaSubida:    &now,
		Estado:         ValidacionPendiente,
	}
	p.UpdatedAt = now
	return nil
}

// AprobarPago marca el pago como validado. Solo desde pago_pendiente.
func (p *Practicante) AprobarPago(validadoPor, comentarios string) error {
	if p.Estado != EstadoPagoPendiente {
		return p.transitionErr(EstadoPagoValidado)
	}
	if p.ValidacionPago.ComprobanteURL == "" {
		return ErrSinComprobante
	}

	now := time.Now().UTC()
	p.Estado = EstadoPagoValidado
	p.ValidacionPago.Estado = ValidacionAprobada
	p.ValidacionPago.ValidadoPor = validadoPor
	p.ValidacionPago.FechaValidacion = &now
	p.ValidacionPago.Comentarios = strings.TrimSpace(comentarios)
	p.UpdatedAt = now
	return nil
}

// RechazarPago rechaza el comprobante. Exige comentarios no vacíos para que
// el estudiante sepa qué corregir.
func (p *Practicante) RechazarPago(validadoPor, comentarios string) error {
	if p.Estado != EstadoPagoPendiente {
		return p.transitionErr(EstadoRechazado)
	}
	if strings.TrimSpace(comentarios) == "" {
		return ErrComentariosRequeridos
	}

	now := time.Now().UTC()
	p.Estado = EstadoRechazado
	p.ValidacionPago.Estado = ValidacionRechazada
	p.ValidacionPago.ValidadoPor = validadoPor
	p.ValidacionPago.FechaValidacion = &now
	p.ValidacionPago.Comentarios = strings.TrimSpace(comentarios)
	p.UpdatedAt = now
	return nil
}

// AsignarEmailInstitucional registra el correo institucional del candidato.
func (p *Practicante) AsignarEmailInstitucional(email shared.Email) error {
	if !email.IsInstitutional() {
		return shared.NewDomainError("practicante", "AsignarEmailInstitucional", shared.ErrInvalidFormat,
			"email must belong to "+shared.InstitutionalDomain)
	}
	p.EmailInstitucional = email.Normalize()
	p.UpdatedAt = time.Now().UTC()
	return nil
}

// CrearCuenta completa el ciclo: asigna el usuario creado y mueve el registro
// a estudiante_creado. El llamador es responsable de que la creación de la
// cuenta y esta transición se persistan en la misma transacción.
func (p *Practicante) CrearCuenta(usuarioID, creadoPor string) error {
	if p.Estado != EstadoPagoValidado {
		return p.transitionErr(EstadoEstudianteCreado)
	}
	if !p.EmailInstitucional.IsInstitutional() {
		return ErrSinEmailInstitucional
	}
	if usuarioID == "" {
		return shared.NewDomainError("practicante", "CrearCuenta", shared.ErrInvalidID, "usuario id is required")
	}

	now := time.Now().UTC()
	p.Estado = EstadoEstudianteCreado
	p.EstudianteInfo = EstudianteInfo{
		UsuarioID:     usuarioID,
		FechaCreacion: &now,
		CreadoPor:     creadoPor,
	}
	p.UpdatedAt = now
	return nil
}

// CheckInvariants verifica los invariantes estructurales del registro. Se usa
// en pruebas y al hidratar desde almacenamiento.
func (p *Practicante) CheckInvariants() error {
	if !p.Estado.IsValid() {
		return shared.NewDomainError("practicante", "CheckInvariants", shared.ErrInvalidState,
			"unknown estado: "+p.Estado.String())
	}
	tieneUsuario := p.EstudianteInfo.UsuarioID != ""
	esCreado := p.Estado == EstadoEstudianteCreado
	if tieneUsuario != esCreado {
		return shared.NewDomainError("practicante", "CheckInvariants", shared.ErrInvalidEntity,
			"estudiante_info.usuario_id must be set iff estado is estudiante_creado")
	}
	return nil
}

// NombreCompleto devuelve "Nombres Apellidos" para listados.
func (p *Practicante) NombreCompleto() string {
	return strings.TrimSpace(p.Nombres + " " + p.Apellidos)
}

// String devuelve una representación corta para logs.
func (p *Practicante) String() string {
	return fmt.Sprintf("Practicante{ID: %s, Documento: %s, Estado: %s}", p.ID, p.Documento, p.Estado)
}

// Clone crea una copia del practicante.
func (p *Practicante) Clone() *Practicante {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}
