package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fesc-practicas/practicas-hub/internal/domain/empresa"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// SOLICITUD REPOSITORY IMPLEMENTATION
// The requested intern profiles travel with the solicitud as a JSONB column:
// they are never queried independently and always load with their parent.
// ══════════════════════════════════════════════════════════════════════════════

const solicitudColumns = `
	id, nit, razon_social, email_contacto, telefono, direccion,
	estado, notas_director, revisado_por, fecha_decision, practicantes,
	created_at, updated_at
`

// SolicitudRepository implements empresa.Repository for PostgreSQL.
type SolicitudRepository struct {
	conn *Connection
}

// NewSolicitudRepository creates a new SolicitudRepository.
func NewSolicitudRepository(conn *Connection) *SolicitudRepository {
	return &SolicitudRepository{conn: conn}
}

// practicanteSolicitadoRow is the JSONB shape of a requested profile.
type practicanteSolicitadoRow struct {
	Perfil    string `json:"perfil"`
	Programa  string `json:"programa,omitempty"`
	Cantidad  int    `json:"cantidad"`
	Funciones string `json:"funciones,omitempty"`
}

// Create inserts a new solicitud.
func (r *SolicitudRepository) Create(ctx context.Context, s *empresa.SolicitudEmpresa) error {
	query := `
		INSERT INTO solicitudes_empresas (` + solicitudColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	practicantesJSON, err := marshalPracticantes(s.Practicantes)
	if err != nil {
		return err
	}

	_, err = r.conn.Exec(ctx, query,
		s.ID,
		s.Nit,
		s.RazonSocial,
		s.EmailContacto.String(),
		s.Telefono,
		s.Direccion,
		s.Estado.String(),
		s.NotasDirector,
		s.RevisadoPor,
		s.FechaDecision,
		practicantesJSON,
		s.CreatedAt,
		s.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create solicitud: %w", err)
	}

	return nil
}

// GetByID returns a solicitud by ID.
func (r *SolicitudRepository) GetByID(ctx context.Context, id string) (*empresa.SolicitudEmpresa, error) {
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes_empresas WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanSolicitud(row)
}

// Update persists the whole solicitud in one atomic write.
func (r *SolicitudRepository) Update(ctx context.Context, s *empresa.SolicitudEmpresa) error {
	query := `
		UPDATE solicitudes_empresas SET
			nit = $1,
			razon_social = $2,
			email_contacto = $3,
			telefono = $4,
			direccion = $5,
			estado = $6,
			notas_director = $7,
			revisado_por = $8,
			fecha_decision = $9,
			practicantes = $10,
			updated_at = $11
		WHERE id = $12
	`

	practicantesJSON, err := marshalPracticantes(s.Practicantes)
	if err != nil {
		return err
	}

	result, err := r.conn.Exec(ctx, query,
		s.Nit,
		s.RazonSocial,
		s.EmailContacto.String(),
		s.Telefono,
		s.Direccion,
		s.Estado.String(),
		s.NotasDirector,
		s.RevisadoPor,
		s.FechaDecision,
		practicantesJSON,
		time.Now().UTC(),
		s.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update solicitud: %w", err)
	}

	if result.RowsAffected() == 0 {
		return empresa.ErrSolicitudNotFound
	}

	return nil
}

// List returns solicitudes filtered by estado (empty estado = all).
func (r *SolicitudRepository) List(ctx context.Context, estado empresa.Estado, limit, offset int) ([]*empresa.SolicitudEmpresa, error) {
	query := `SELECT ` + solicitudColumns + ` FROM solicitudes_empresas`
	args := []interface{}{limit, offset}

	if estado != "" {
		query += ` WHERE estado = $3`
		args = append(args, estado.String())
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list solicitudes: %w", err)
	}
	defer rows.Close()

	var out []*empresa.SolicitudEmpresa
	for rows.Next() {
		s, err := scanSolicitud(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

func marshalPracticantes(practicantes []empresa.PracticanteSolicitado) ([]byte, error) {
	rows := make([]practicanteSolicitadoRow, 0, len(practicantes))
	for _, ps := range practicantes {
		rows = append(rows, practicanteSolicitadoRow{
			Perfil:    ps.Perfil,
			Programa:  ps.Programa,
			Cantidad:  ps.Cantidad,
			Funciones: ps.Funciones,
		})
	}

	data, err := json.Marshal(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal practicantes: %w", err)
	}
	return data, nil
}

func scanSolicitud(row pgx.Row) (*empresa.SolicitudEmpresa, error) {
	var s empresa.SolicitudEmpresa
	var emailContacto, estado string
	var practicantesJSON []byte

	err := row.Scan(
		&s.ID,
		&s.Nit,
		&s.RazonSocial,
		&emailContacto,
		&s.Telefono,
		&s.Direccion,
		&estado,
		&s.NotasDirector,
		&s.RevisadoPor,
		&s.FechaDecision,
		&practicantesJSON,
		&s.CreatedAt,
		&s.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, empresa.ErrSolicitudNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan solicitud: %w", err)
	}

	s.EmailContacto = shared.Email(emailContacto)
	s.Estado = empresa.Estado(estado)

	var rows []practicanteSolicitadoRow
	if len(practicantesJSON) > 0 {
		if err := json.Unmarshal(practicantesJSON, &rows); err != nil {
			return nil, fmt.Errorf("failed to unmarshal practicantes: %w", err)
		}
	}
	for _, ps := range rows {
		s.Practicantes = append(s.Practicantes, empresa.PracticanteSolicitado{
			Perfil:    ps.Perfil,
			Programa:  ps.Programa,
			Cantidad:  ps.Cantidad,
			Funciones: ps.Funciones,
		})
	}

	return &s, nil
}
