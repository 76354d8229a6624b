package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// CUENTAS SERVICE
// The last pipeline step writes two rows: the institutional account and the
// advanced practicante. They go in one transaction; an account without an
// estudiante_creado record (or the reverse) is a consistency violation.
// ══════════════════════════════════════════════════════════════════════════════

// ErrEmailEnUso - an account with this institutional email already exists.
var ErrEmailEnUso = shared.NewDomainError("cuentas", "CrearCuenta", shared.ErrConflict,
	"an account with this institutional email already exists")

// CuentasService creates institutional accounts backed by the usuarios table.
// It implements command.CuentasService.
type CuentasService struct {
	conn *Connection
	cost int
}

// NewCuentasService creates a new CuentasService with the default bcrypt cost.
func NewCuentasService(conn *Connection) *CuentasService {
	return &CuentasService{conn: conn, cost: bcrypt.DefaultCost}
}

// CrearCuentaYAvanzar hashes the password, inserts the account row and
// persists the practicante (already advanced to estudiante_creado by the
// caller) in a single transaction.
func (s *CuentasService) CrearCuentaYAvanzar(ctx context.Context, p *practicante.Practicante, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO usuarios (id, email, password_hash, practicante_id, created_at)
			VALUES ($1, $2, $3, $4, $5)
		`,
			p.EstudianteInfo.UsuarioID,
			p.EmailInstitucional.String(),
			string(hash),
			p.ID,
			time.Now().UTC(),
		)
		if err != nil {
			if IsUniqueViolation(err) {
				return ErrEmailEnUso
			}
			return fmt.Errorf("failed to create usuario: %w", err)
		}

		return updatePracticante(ctx, tx, p)
	})
}

// VerificarCredenciales checks an email/password pair against the usuarios
// table. Returns the practicante id on success and NotFound on any mismatch,
// without distinguishing unknown email from wrong password.
func (s *CuentasService) VerificarCredenciales(ctx context.Context, email, password string) (string, error) {
	var hash, practicanteID string
	err := s.conn.QueryRow(ctx,
		`SELECT password_hash, practicante_id FROM usuarios WHERE email = $1`,
		email,
	).Scan(&hash, &practicanteID)
	if IsNoRows(err) {
		return "", shared.NewDomainError("cuentas", "Verificar", shared.ErrNotFound, "invalid credentials")
	}
	if err != nil {
		return "", fmt.Errorf("failed to load usuario: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return "", shared.NewDomainError("cuentas", "Verificar", shared.ErrNotFound, "invalid credentials")
	}

	return practicanteID, nil
}
