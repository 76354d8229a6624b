package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECURSO REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const recursoColumns = `
	id, tipo, subtipo, titulo, url, content_type, size,
	nota, notas_adicionales, estado, created_at, updated_at
`

// RecursoRepository implements recurso.Repository for PostgreSQL.
type RecursoRepository struct {
	conn *Connection
}

// NewRecursoRepository creates a new RecursoRepository.
func NewRecursoRepository(conn *Connection) *RecursoRepository {
	return &RecursoRepository{conn: conn}
}

// Create inserts a new recurso.
func (r *RecursoRepository) Create(ctx context.Context, rec *recurso.Recurso) error {
	if err := insertRecurso(ctx, r.conn, rec); err != nil {
		return err
	}
	return nil
}

// GetByID returns a recurso by ID.
func (r *RecursoRepository) GetByID(ctx context.Context, id string) (*recurso.Recurso, error) {
	query := `SELECT ` + recursoColumns + ` FROM recursos WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanRecurso(row)
}

// GetByIDs returns the recursos that exist among the given ids. Ids that do
// not resolve are omitted: aggregation treats them as "not delivered", never
// as an error.
func (r *RecursoRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*recurso.Recurso, error) {
	out := make(map[string]*recurso.Recurso)
	if len(ids) == 0 {
		return out, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	query := fmt.Sprintf(`SELECT %s FROM recursos WHERE id IN (%s)`,
		recursoColumns, strings.Join(placeholders, ", "))

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recursos by ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecurso(rows)
		if err != nil {
			return nil, err
		}
		out[rec.ID] = rec
	}

	return out, rows.Err()
}

// Update persists the whole recurso in one atomic write.
func (r *RecursoRepository) Update(ctx context.Context, rec *recurso.Recurso) error {
	query := `
		UPDATE recursos SET
			titulo = $1,
			url = $2,
			content_type = $3,
			size = $4,
			nota = $5,
			notas_adicionales = $6,
			estado = $7,
			updated_at = $8
		WHERE id = $9
	`

	result, err := r.conn.Exec(ctx, query,
		rec.Titulo,
		rec.URL,
		rec.ContentType,
		rec.Size,
		rec.Nota,
		rec.NotasAdicionales,
		string(rec.Estado),
		time.Now().UTC(),
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update recurso: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recurso.ErrRecursoNotFound
	}

	return nil
}

// Delete removes a recurso.
func (r *RecursoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM recursos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete recurso: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recurso.ErrRecursoNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Scanning
// ─────────────────────────────────────────────────────────────────────────────

// insertRecurso writes a recurso through any Querier so transactional writers
// (anexo attachment, seguimiento creation) can share the statement.
func insertRecurso(ctx context.Context, q Querier, rec *recurso.Recurso) error {
	query := `
		INSERT INTO recursos (` + recursoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := q.Exec(ctx, query,
		rec.ID,
		rec.Tipo.String(),
		string(rec.Subtipo),
		rec.Titulo,
		rec.URL,
		rec.ContentType,
		rec.Size,
		rec.Nota,
		rec.NotasAdicionales,
		string(rec.Estado),
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create recurso: %w", err)
	}

	return nil
}

func scanRecurso(row pgx.Row) (*recurso.Recurso, error) {
	var rec recurso.Recurso
	var tipo, subtipo, estado string

	err := row.Scan(
		&rec.ID,
		&tipo,
		&subtipo,
		&rec.Titulo,
		&rec.URL,
		&rec.ContentType,
		&rec.Size,
		&rec.Nota,
		&rec.NotasAdicionales,
		&estado,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, recurso.ErrRecursoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan recurso: %w", err)
	}

	rec.Tipo = recurso.Tipo(tipo)
	rec.Subtipo = recurso.Subtipo(subtipo)
	rec.Estado = recurso.EstadoVerificacion(estado)

	return &rec, nil
}
