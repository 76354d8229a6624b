package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PRACTICANTE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const practicanteColumns = `
	id, documento, nombres, apellidos, email_personal, email_institucional,
	telefono, programa, estado,
	comprobante_url, comprobante_content_type, comprobante_size, fecha_subida,
	validacion_estado, validado_por, fecha_validacion, comentarios,
	usuario_id, cuenta_creada_at, cuenta_creada_por,
	created_at, updated_at
`

// PracticanteRepository implements practicante.Repository for PostgreSQL.
type PracticanteRepository struct {
	conn *Connection
}

// NewPracticanteRepository creates a new PracticanteRepository.
func NewPracticanteRepository(conn *Connection) *PracticanteRepository {
	return &PracticanteRepository{conn: conn}
}

// Create inserts a new preinscription. The unique index on documento turns
// concurrent duplicates into ErrDocumentoDuplicado.
func (r *PracticanteRepository) Create(ctx context.Context, p *practicante.Practicante) error {
	query := `
		INSERT INTO practicantes (` + practicanteColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22)
	`

	_, err := r.conn.Exec(ctx, query,
		p.ID,
		p.Documento.String(),
		p.Nombres,
		p.Apellidos,
		p.EmailPersonal.String(),
		p.EmailInstitucional.String(),
		p.Telefono,
		p.Programa,
		p.Estado.String(),
		p.ValidacionPago.ComprobanteURL,
		p.ValidacionPago.ContentType,
		p.ValidacionPago.Size,
		p.ValidacionPago.FechaSubida,
		string(p.ValidacionPago.Estado),
		p.ValidacionPago.ValidadoPor,
		p.ValidacionPago.FechaValidacion,
		p.ValidacionPago.Comentarios,
		p.EstudianteInfo.UsuarioID,
		p.EstudianteInfo.FechaCreacion,
		p.EstudianteInfo.CreadoPor,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return practicante.ErrDocumentoDuplicado
		}
		return fmt.Errorf("failed to create practicante: %w", err)
	}

	return nil
}

// GetByID returns a practicante by internal ID.
func (r *PracticanteRepository) GetByID(ctx context.Context, id string) (*practicante.Practicante, error) {
	query := `SELECT ` + practicanteColumns + ` FROM practicantes WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanPracticante(row)
}

// GetByDocumento returns a practicante by identity document.
func (r *PracticanteRepository) GetByDocumento(ctx context.Context, doc shared.DocumentoIdentidad) (*practicante.Practicante, error) {
	query := `SELECT ` + practicanteColumns + ` FROM practicantes WHERE documento = $1`

	row := r.conn.QueryRow(ctx, query, doc.String())
	return scanPracticante(row)
}

// Update persists the whole record in one atomic write.
func (r *PracticanteRepository) Update(ctx context.Context, p *practicante.Practicante) error {
	return updatePracticante(ctx, r.conn, p)
}

// updatePracticante writes the record through any Querier so transactional
// writers (account creation) can share the statement.
func updatePracticante(ctx context.Context, q Querier, p *practicante.Practicante) error {
	query := `
		UPDATE practicantes SET
			nombres = $1,
			apellidos = $2,
			email_personal = $3,
			email_institucional = $4,
			telefono = $5,
			programa = $6,
			estado = $7,
			comprobante_url = $8,
			comprobante_content_type = $9,
			comprobante_size = $10,
			fecha_subida = $11,
			validacion_estado = $12,
			validado_por = $13,
			fecha_validacion = $14,
			comentarios = $15,
			usuario_id = $16,
			cuenta_creada_at = $17,
			cuenta_creada_por = $18,
			updated_at = $19
		WHERE id = $20
	`

	result, err := q.Exec(ctx, query,
		p.Nombres,
		p.Apellidos,
		p.EmailPersonal.String(),
		p.EmailInstitucional.String(),
		p.Telefono,
		p.Programa,
		p.Estado.String(),
		p.ValidacionPago.ComprobanteURL,
		p.ValidacionPago.ContentType,
		p.ValidacionPago.Size,
		p.ValidacionPago.FechaSubida,
		string(p.ValidacionPago.Estado),
		p.ValidacionPago.ValidadoPor,
		p.ValidacionPago.FechaValidacion,
		p.ValidacionPago.Comentarios,
		p.EstudianteInfo.UsuarioID,
		p.EstudianteInfo.FechaCreacion,
		p.EstudianteInfo.CreadoPor,
		time.Now().UTC(),
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update practicante: %w", err)
	}

	if result.RowsAffected() == 0 {
		return practicante.ErrPracticanteNotFound
	}

	return nil
}

// List returns practicantes filtered by estado (empty estado = all).
func (r *PracticanteRepository) List(ctx context.Context, estado practicante.Estado, limit, offset int) ([]*practicante.Practicante, error) {
	query := `SELECT ` + practicanteColumns + ` FROM practicantes`
	args := []interface{}{limit, offset}

	if estado != "" {
		query += ` WHERE estado = $3`
		args = append(args, estado.String())
	}
	query += ` ORDER BY created_at DESC LIMIT $1 OFFSET $2`

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list practicantes: %w", err)
	}
	defer rows.Close()

	var out []*practicante.Practicante
	for rows.Next() {
		p, err := scanPracticante(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// CountByEstado counts practicantes grouped by estado.
func (r *PracticanteRepository) CountByEstado(ctx context.Context) (map[practicante.Estado]int, error) {
	rows, err := r.conn.Query(ctx, `SELECT estado, COUNT(*) FROM practicantes GROUP BY estado`)
	if err != nil {
		return nil, fmt.Errorf("failed to count practicantes: %w", err)
	}
	defer rows.Close()

	counts := make(map[practicante.Estado]int)
	for rows.Next() {
		var estado string
		var n int
		if err := rows.Scan(&estado, &n); err != nil {
			return nil, fmt.Errorf("failed to scan estado count: %w", err)
		}
		counts[practicante.Estado(estado)] = n
	}

	return counts, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

// scanPracticante hydrates a practicante from a row. Value objects are rebuilt
// trusting the stored representation: the database only ever holds values that
// passed domain validation on the way in.
func scanPracticante(row pgx.Row) (*practicante.Practicante, error) {
	var p practicante.Practicante
	var documento, emailPersonal, emailInstitucional, estado, validacionEstado string

	err := row.Scan(
		&p.ID,
		&documento,
		&p.Nombres,
		&p.Apellidos,
		&emailPersonal,
		&emailInstitucional,
		&p.Telefono,
		&p.Programa,
		&estado,
		&p.ValidacionPago.ComprobanteURL,
		&p.ValidacionPago.ContentType,
		&p.ValidacionPago.Size,
		&p.ValidacionPago.FechaSubida,
		&validacionEstado,
		&p.ValidacionPago.ValidadoPor,
		&p.ValidacionPago.FechaValidacion,
		&p.ValidacionPago.Comentarios,
		&p.EstudianteInfo.UsuarioID,
		&p.EstudianteInfo.FechaCreacion,
		&p.EstudianteInfo.CreadoPor,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, practicante.ErrPracticanteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan practicante: %w", err)
	}

	p.Documento = shared.DocumentoIdentidad(documento)
	p.EmailPersonal = shared.Email(emailPersonal)
	p.EmailInstitucional = shared.Email(emailInstitucional)
	p.Estado = practicante.Estado(estado)
	p.ValidacionPago.Estado = practicante.EstadoValidacion(validacionEstado)

	return &p, nil
}
