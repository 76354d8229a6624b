package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROCESO REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const procesoColumns = `
	id, estudiante_id, grupo_id,
	arl_id, certificado_id, atlas_docente_id, atlas_estudiante_id, atlas_obras_id,
	anexo_ids, nota_1, nota_2, nota_3, nota_4,
	evaluacion_enlace, evaluacion_observaciones, autoevaluacion, es_consultoria,
	created_at, updated_at
`

// ProcesoRepository implements proceso.Repository for PostgreSQL. It also
// provides the transactional anexo attachment used by the write side.
type ProcesoRepository struct {
	conn *Connection
}

// NewProcesoRepository creates a new ProcesoRepository.
func NewProcesoRepository(conn *Connection) *ProcesoRepository {
	return &ProcesoRepository{conn: conn}
}

// Create inserts a new proceso. The unique index on (estudiante_id, grupo_id)
// turns concurrent get-or-create races into ErrProcesoDuplicado, which the
// caller retries as a read.
func (r *ProcesoRepository) Create(ctx context.Context, p *proceso.ProcesoPracticas) error {
	query := `
		INSERT INTO procesos_practicas (` + procesoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19)
	`

	_, err := r.conn.Exec(ctx, query, procesoArgs(p)...)
	if err != nil {
		if IsUniqueViolation(err) {
			return proceso.ErrProcesoDuplicado
		}
		return fmt.Errorf("failed to create proceso: %w", err)
	}

	return nil
}

// GetByID returns a proceso by ID.
func (r *ProcesoRepository) GetByID(ctx context.Context, id string) (*proceso.ProcesoPracticas, error) {
	query := `SELECT ` + procesoColumns + ` FROM procesos_practicas WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, id)
	return scanProceso(row)
}

// GetByEstudianteGrupo returns the proceso of the (estudiante, grupo) pair.
func (r *ProcesoRepository) GetByEstudianteGrupo(ctx context.Context, estudianteID, grupoID string) (*proceso.ProcesoPracticas, error) {
	query := `SELECT ` + procesoColumns + ` FROM procesos_practicas
		WHERE estudiante_id = $1 AND grupo_id = $2`

	row := r.conn.QueryRow(ctx, query, estudianteID, grupoID)
	return scanProceso(row)
}

// Update persists the whole proceso in one atomic write.
func (r *ProcesoRepository) Update(ctx context.Context, p *proceso.ProcesoPracticas) error {
	result, err := r.conn.Exec(ctx, procesoUpdateSQL, procesoUpdateArgs(p)...)
	if err != nil {
		return fmt.Errorf("failed to update proceso: %w", err)
	}

	if result.RowsAffected() == 0 {
		return proceso.ErrProcesoNotFound
	}

	return nil
}

// ListByGrupo returns the procesos of a group.
func (r *ProcesoRepository) ListByGrupo(ctx context.Context, grupoID string) ([]*proceso.ProcesoPracticas, error) {
	query := `SELECT ` + procesoColumns + ` FROM procesos_practicas
		WHERE grupo_id = $1 ORDER BY created_at ASC`

	rows, err := r.conn.Query(ctx, query, grupoID)
	if err != nil {
		return nil, fmt.Errorf("failed to list procesos: %w", err)
	}
	defer rows.Close()

	var out []*proceso.ProcesoPracticas
	for rows.Next() {
		p, err := scanProceso(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}

	return out, rows.Err()
}

// CrearYVincular inserts the anexo resource and persists the proceso that now
// references it in a single transaction. Either both rows land or neither
/// does: a dangling anexo reference is not representable.
func (r *ProcesoRepository) CrearYVincular(ctx context.Context, p *proceso.ProcesoPracticas, rec *recurso.Recurso) error {
	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		if err := insertRecurso(ctx, tx, rec); err != nil {
			return err
		}

		result, err := tx.Exec(ctx, procesoUpdateSQL, procesoUpdateArgs(p)...)
		if err != nil {
			return fmt.Errorf("failed to update proceso: %w", err)
		}
		if result.RowsAffected() == 0 {
			return proceso.ErrProcesoNotFound
		}
		return nil
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// SQL fragments and scanning
// ─────────────────────────────────────────────────────────────────────────────

const procesoUpdateSQL = `
	UPDATE procesos_practicas SET
		arl_id = $1,
		certificado_id = $2,
		atlas_docente_id = $3,
		atlas_estudiante_id = $4,
		atlas_obras_id = $5,
		anexo_ids = $6,
		nota_1 = $7,
		nota_2 = $8,
		nota_3 = $9,
		nota_4 = $10,
		evaluacion_enlace = $11,
		evaluacion_observaciones = $12,
		autoevaluacion = $13,
		es_consultoria = $14,
		updated_at = $15
	WHERE id = $16
`

func procesoArgs(p *proceso.ProcesoPracticas) []interface{} {
	return []interface{}{
		p.ID,
		p.EstudianteID,
		p.GrupoID,
		p.ArlID,
		p.CertificadoID,
		p.AtlasDocenteID,
		p.AtlasEstudianteID,
		p.AtlasObrasID,
		p.AnexoIDs,
		p.Evaluacion.Notas[0],
		p.Evaluacion.Notas[1],
		p.Evaluacion.Notas[2],
		p.Evaluacion.Notas[3],
		p.Evaluacion.Enlace,
		p.Evaluacion.Observaciones,
		p.Autoevaluacion,
		p.EsConsultoria,
		p.CreatedAt,
		p.UpdatedAt,
	}
}

func procesoUpdateArgs(p *proceso.ProcesoPracticas) []interface{} {
	return []interface{}{
		p.ArlID,
		p.CertificadoID,
		p.AtlasDocenteID,
		p.AtlasEstudianteID,
		p.AtlasObrasID,
		p.AnexoIDs,
		p.Evaluacion.Notas[0],
		p.Evaluacion.Notas[1],
		p.Evaluacion.Notas[2],
		p.Evaluacion.Notas[3],
		p.Evaluacion.Enlace,
		p.Evaluacion.Observaciones,
		p.Autoevaluacion,
		p.EsConsultoria,
		time.Now().UTC(),
		p.ID,
	}
}

func scanProceso(row pgx.Row) (*proceso.ProcesoPracticas, error) {
	var p proceso.ProcesoPracticas

	err := row.Scan(
		&p.ID,
		&p.EstudianteID,
		&p.GrupoID,
		&p.ArlID,
		&p.CertificadoID,
		&p.AtlasDocenteID,
		&p.AtlasEstudianteID,
		&p.AtlasObrasID,
		&p.AnexoIDs,
		&p.Evaluacion.Notas[0],
		&p.Evaluacion.Notas[1],
		&p.Evaluacion.Notas[2],
		&p.Evaluacion.Notas[3],
		&p.Evaluacion.Enlace,
		&p.Evaluacion.Observaciones,
		&p.Autoevaluacion,
		&p.EsConsultoria,
		&p.CreatedAt,
		&p.UpdatedAt,
	)

	if IsNoRows(err) {
		return nil, proceso.ErrProcesoNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan proceso: %w", err)
	}

	return &p, nil
}
