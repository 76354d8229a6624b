package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
)

// ══════════════════════════════════════════════════════════════════════════════
// SEGUIMIENTO REPOSITORY IMPLEMENTATION
// Checkpoints and their per-student entries persist together; the delivery
// resources live in the recursos table and survive checkpoint deletion.
// ══════════════════════════════════════════════════════════════════════════════

// SeguimientoRepository implements recurso.SeguimientoRepository for
// PostgreSQL. It also provides the transactional bulk creation used by the
// write side.
type SeguimientoRepository struct {
	conn *Connection
}

// NewSeguimientoRepository creates a new SeguimientoRepository.
func NewSeguimientoRepository(conn *Connection) *SeguimientoRepository {
	return &SeguimientoRepository{conn: conn}
}

// Create inserts the seguimiento with all its entries in one transaction.
func (r *SeguimientoRepository) Create(ctx context.Context, s *recurso.SeguimientoGrupo) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		return insertSeguimiento(ctx, tx, s)
	})
}

// CrearConRecursos inserts the seguimiento, its entries and the per-student
// delivery resources in a single transaction. A checkpoint whose entries point
// at resources that were never created is not representable.
func (r *SeguimientoRepository) CrearConRecursos(ctx context.Context, s *recurso.SeguimientoGrupo, recursos []*recurso.Recurso) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		for _, rec := range recursos {
			if err := insertRecurso(ctx, tx, rec); err != nil {
				return err
			}
		}
		return insertSeguimiento(ctx, tx, s)
	})
}

// GetByID returns the seguimiento with its entries in order.
func (r *SeguimientoRepository) GetByID(ctx context.Context, id string) (*recurso.SeguimientoGrupo, error) {
	query := `
		SELECT id, grupo_id, titulo, fecha_limite, created_at, updated_at
		FROM seguimientos
		WHERE id = $1
	`

	var s recurso.SeguimientoGrupo
	err := r.conn.QueryRow(ctx, query, id).Scan(
		&s.ID, &s.GrupoID, &s.Titulo, &s.FechaLimite, &s.CreatedAt, &s.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, recurso.ErrSeguimientoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan seguimiento: %w", err)
	}

	if err := r.loadEntradas(ctx, &s); err != nil {
		return nil, err
	}

	return &s, nil
}

// ListByGrupo returns the seguimientos of a group.
func (r *SeguimientoRepository) ListByGrupo(ctx context.Context, grupoID string) ([]*recurso.SeguimientoGrupo, error) {
	query := `
		SELECT id, grupo_id, titulo, fecha_limite, created_at, updated_at
		FROM seguimientos
		WHERE grupo_id = $1
		ORDER BY created_at ASC
	`

	return r.querySeguimientos(ctx, query, grupoID)
}

// ListByEstudiante returns the seguimientos that carry an entry for the
// given student.
func (r *SeguimientoRepository) ListByEstudiante(ctx context.Context, estudianteID string) ([]*recurso.SeguimientoGrupo, error) {
	query := `
		SELECT s.id, s.grupo_id, s.titulo, s.fecha_limite, s.created_at, s.updated_at
		FROM seguimientos s
		JOIN entradas_seguimiento e ON e.seguimiento_id = s.id
		WHERE e.estudiante_id = $1
		ORDER BY s.created_at ASC
	`

	return r.querySeguimientos(ctx, query, estudianteID)
}

// Delete removes the seguimiento; its entries cascade. Delivery resources
// stay behind as controlled orphans.
func (r *SeguimientoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.conn.Exec(ctx, `DELETE FROM seguimientos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete seguimiento: %w", err)
	}

	if result.RowsAffected() == 0 {
		return recurso.ErrSeguimientoNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func insertSeguimiento(ctx context.Context, tx pgx.Tx, s *recurso.SeguimientoGrupo) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO seguimientos (id, grupo_id, titulo, fecha_limite, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.ID, s.GrupoID, s.Titulo, s.FechaLimite, s.CreatedAt, s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create seguimiento: %w", err)
	}

	for _, e := range s.Entradas {
		_, err := tx.Exec(ctx, `
			INSERT INTO entradas_seguimiento (id, seguimiento_id, estudiante_id, recurso_id, orden)
			VALUES ($1, $2, $3, $4, $5)
		`, e.ID, e.SeguimientoID, e.EstudianteID, e.RecursoID, e.Orden)
		if err != nil {
			if IsUniqueViolation(err) {
				return recurso.ErrEntradaDuplicada
			}
			return fmt.Errorf("failed to create entrada: %w", err)
		}
	}

	return nil
}

func (r *SeguimientoRepository) querySeguimientos(ctx context.Context, query string, arg interface{}) ([]*recurso.SeguimientoGrupo, error) {
	rows, err := r.conn.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list seguimientos: %w", err)
	}
	defer rows.Close()

	var out []*recurso.SeguimientoGrupo
	for rows.Next() {
		var s recurso.SeguimientoGrupo
		var fechaLimite *time.Time
		if err := rows.Scan(&s.ID, &s.GrupoID, &s.Titulo, &fechaLimite, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan seguimiento: %w", err)
		}
		s.FechaLimite = fechaLimite
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, s := range out {
		if err := r.loadEntradas(ctx, s); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func (r *SeguimientoRepository) loadEntradas(ctx context.Context, s *recurso.SeguimientoGrupo) error {
	rows, err := r.conn.Query(ctx, `
		SELECT id, seguimiento_id, estudiante_id, recurso_id, orden
		FROM entradas_seguimiento
		WHERE seguimiento_id = $1
		ORDER BY orden ASC
	`, s.ID)
	if err != nil {
		return fmt.Errorf("failed to load entradas: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e recurso.EntradaSeguimiento
		if err := rows.Scan(&e.ID, &e.SeguimientoID, &e.EstudianteID, &e.RecursoID, &e.Orden); err != nil {
			return fmt.Errorf("failed to scan entrada: %w", err)
		}
		s.Entradas = append(s.Entradas, e)
	}

	return rows.Err()
}
