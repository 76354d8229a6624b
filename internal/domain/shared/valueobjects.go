// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"regexp"
	"strings"
)

// ═══════════════════════════════════════════════════════════════════════════
// Rol Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Rol represents the role of the acting principal, as supplied by the
// identity provider. The core never issues or verifies credentials itself.
type Rol string

const (
	RolAdmin           Rol = "admin"
	RolRegistroControl Rol = "registro_control"
	RolProfesor        Rol = "profesor"
	RolDirector        Rol = "director"
	RolEstudiante      Rol = "estudiante"
)

// IsValid checks if the role is one of the known values.
func (r Rol) IsValid() bool {
	switch r {
	case RolAdmin, RolRegistroControl, RolProfesor, RolDirector, RolEstudiante:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Rol) String() string {
	return string(r)
}

// IsStaff reports whether the role belongs to institutional staff. Staff may
// write any practicum section; students are limited to their own records.
func (r Rol) IsStaff() bool {
	return r == RolAdmin || r == RolProfesor || r == RolDirector
}

// ParseRol parses a string into a Rol.
func ParseRol(s string) (Rol, error) {
	r := Rol(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsValid() {
		return "", NewDomainError("shared", "ParseRol", ErrInvalidInput, "unknown role: "+s)
	}
	return r, nil
}

// Principal identifies the acting user for authorization decisions. SubjectID
// is matched against estudiante IDs for ownership checks.
type Principal struct {
	SubjectID string
	Rol       Rol
}

// IsOwner reports whether the principal is the student that owns the record.
func (p Principal) IsOwner(estudianteID string) bool {
	return p.Rol == RolEstudiante && p.SubjectID != "" && p.SubjectID == estudianteID
}

// ═══════════════════════════════════════════════════════════════════════════
// DocumentoIdentidad Value Object
// ═══════════════════════════════════════════════════════════════════════════

// DocumentoIdentidad is the national identity document number. It is the
// idempotency boundary for preinscriptions: one record per document, not per
// email.
type DocumentoIdentidad string

var documentoRegex = regexp.MustCompile(`^[0-9]{5,15}$`)

// IsValid checks the document number format.
func (d DocumentoIdentidad) IsValid() bool {
	return documentoRegex.MatchString(string(d))
}

// String returns the string representation.
func (d DocumentoIdentidad) String() string {
	return string(d)
}

// NewDocumentoIdentidad creates a validated document number.
func NewDocumentoIdentidad(s string) (DocumentoIdentidad, error) {
	d := DocumentoIdentidad(strings.TrimSpace(s))
	if !d.IsValid() {
		return "", NewDomainError("shared", "NewDocumentoIdentidad", ErrInvalidFormat,
			"document number must be 5-15 digits")
	}
	return d, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Email Value Objects
// ═══════════════════════════════════════════════════════════════════════════

// Email is a plain email address.
type Email string

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// InstitutionalDomain is the domain student accounts are created under.
const InstitutionalDomain = "fesc.edu.co"

// IsValid checks the email format.
func (e Email) IsValid() bool {
	return emailRegex.MatchString(string(e))
}

// IsInstitutional reports whether the email belongs to the institution.
// Account creation requires an institutional address.
func (e Email) IsInstitutional() bool {
	return e.IsValid() && strings.HasSuffix(strings.ToLower(string(e)), "@"+InstitutionalDomain)
}

// String returns the string representation.
func (e Email) String() string {
	return string(e)
}

// Normalize returns the lowercased, trimmed address.
func (e Email) Normalize() Email {
	return Email(strings.ToLower(strings.TrimSpace(string(e))))
}

// NewEmail creates a validated email.
func NewEmail(s string) (Email, error) {
	e := Email(s).Normalize()
	if !e.IsValid() {
		return "", NewDomainError("shared", "NewEmail", ErrInvalidFormat, "invalid email address")
	}
	return e, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Nota Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Nota is a grade on the institutional 0.0 - 5.0 scale. Grades are stored as
// pointers where "not yet graded" is meaningful; a nil grade is never treated
// as zero.
type Nota float64

const (
	MinNota Nota = 0.0
	MaxNota Nota = 5.0
)

// IsValid checks if the grade is within the scale.
func (n Nota) IsValid() bool {
	return n >= MinNota && n <= MaxNota
}

// Float64 returns the underlying value.
func (n Nota) Float64() float64 {
	return float64(n)
}

// NewNota creates a validated grade.
func NewNota(v float64) (Nota, error) {
	n := Nota(v)
	if !n.IsValid() {
		return 0, NewDomainError("shared", "NewNota", ErrValueOutOfRange,
			"grade must be between 0 and 5")
	}
	return n, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ID helpers
// ═══════════════════════════════════════════════════════════════════════════

// UUID validation regex (simple version).
var uuidRegex = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)

// IsUUID reports whether s looks like a UUID. Repositories use it to reject
// malformed ids before touching storage.
func IsUUID(s string) bool {
	return uuidRegex.MatchString(s)
}
