package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/practicante"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

var (
	actorAdmin    = shared.Principal{SubjectID: "admin-1", Rol: shared.RolAdmin}
	actorRegistro = shared.Principal{SubjectID: "registro-1", Rol: shared.RolRegistroControl}
	actorDirector = shared.Principal{SubjectID: "director-1", Rol: shared.RolDirector}
	actorProfesor = shared.Principal{SubjectID: "profesor-1", Rol: shared.RolProfesor}
)

func crearPreinscrito(t *testing.T, repo *fakePracticanteRepo, documento string) string {
	t.Helper()
	h := NewSubmitPreinscripcionHandler(repo, nil)
	res, err := h.Handle(context.Background(), SubmitPreinscripcionCommand{
		Documento:     documento,
		Nombres:       "Laura",
		Apellidos:     "Gómez",
		EmailPersonal: "laura.gomez@example.com",
		Telefono:      "3001234567",
		Programa:      "Ingeniería de Sistemas",
	})
	require.NoError(t, err)
	return res.PracticanteID
}

func TestSubmitPreinscripcion(t *testing.T) {
	ctx := context.Background()

	t.Run("creates record in estado preinscrito", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		bus := &fakeBus{}
		h := NewSubmitPreinscripcionHandler(repo, bus)

		res, err := h.Handle(ctx, SubmitPreinscripcionCommand{
			Documento:     "1090123456",
			Nombres:       "Laura",
			Apellidos:     "Gómez",
			EmailPersonal: "laura.gomez@example.com",
			Programa:      "Ingeniería de Sistemas",
		})
		require.NoError(t, err)
		assert.Equal(t, "preinscrito", res.Estado)
		assert.True(t, bus.has(shared.EventPreinscripcionCreada))

		p, err := repo.GetByID(ctx, res.PracticanteID)
		require.NoError(t, err)
		assert.NoError(t, p.CheckInvariants())
	})

	t.Run("duplicate documento is a conflict", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		crearPreinscrito(t, repo, "1090123456")

		h := NewSubmitPreinscripcionHandler(repo, nil)
		_, err := h.Handle(ctx, SubmitPreinscripcionCommand{
			Documento:     "1090123456",
			Nombres:       "Otra",
			Apellidos:     "Persona",
			EmailPersonal: "otra@example.com",
			Programa:      "Derecho",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, practicante.ErrDocumentoDuplicado)
		assert.True(t, shared.IsConflict(err))
	})

	t.Run("invalid email is a validation error", func(t *testing.T) {
		h := NewSubmitPreinscripcionHandler(newFakePracticanteRepo(), nil)
		_, err := h.Handle(ctx, SubmitPreinscripcionCommand{
			Documento:     "1090123456",
			Nombres:       "Laura",
			Apellidos:     "Gómez",
			EmailPersonal: "no-es-un-correo",
			Programa:      "Ingeniería de Sistemas",
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestSubmitComprobante(t *testing.T) {
	ctx := context.Background()

	t.Run("owner moves record to pago_pendiente", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		bus := &fakeBus{}
		id := crearPreinscrito(t, repo, "1090123456")

		h := NewSubmitComprobanteHandler(repo, bus)
		res, err := h.Handle(ctx, SubmitComprobanteCommand{
			PracticanteID: id,
			Actor:         shared.Principal{SubjectID: id, Rol: shared.RolEstudiante},
			ArchivoURL:    "comprobantes/1090123456.pdf",
			ContentType:   "application/pdf",
			Size:          52_431,
		})
		require.NoError(t, err)
		assert.Equal(t, "pago_pendiente", res.Estado)
		assert.True(t, bus.has(shared.EventComprobanteSubido))
	})

	t.Run("student cannot submit for another record", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := crearPreinscrito(t, repo, "1090123456")

		h := NewSubmitComprobanteHandler(repo, nil)
		_, err := h.Handle(ctx, SubmitComprobanteCommand{
			PracticanteID: id,
			Actor:         shared.Principal{SubjectID: "otro-estudiante", Rol: shared.RolEstudiante},
			ArchivoURL:    "comprobantes/x.pdf",
		})
		require.Error(t, err)
		assert.True(t, shared.IsForbidden(err))
	})

	t.Run("no edge from pago_validado", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := avanzarHastaPagoValidado(t, repo, "1090123456")

		h := NewSubmitComprobanteHandler(repo, nil)
		_, err := h.Handle(ctx, SubmitComprobanteCommand{
			PracticanteID: id,
			Actor:         actorAdmin,
			ArchivoURL:    "comprobantes/x.pdf",
		})
		require.Error(t, err)
		assert.True(t, shared.IsInvalidState(err))
		assert.False(t, shared.IsForbidden(err))
	})
}

func TestValidatePayment(t *testing.T) {
	ctx := context.Background()

	subirComprobante := func(t *testing.T, repo *fakePracticanteRepo, id string) {
		t.Helper()
		h := NewSubmitComprobanteHandler(repo, nil)
		_, err := h.Handle(ctx, SubmitComprobanteCommand{
			PracticanteID: id,
			Actor:         shared.Principal{SubjectID: id, Rol: shared.RolEstudiante},
			ArchivoURL:    "comprobantes/recibo.pdf",
		})
		require.NoError(t, err)
	}

	t.Run("registro_control approves", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		bus := &fakeBus{}
		id := crearPreinscrito(t, repo, "1090123456")
		subirComprobante(t, repo, id)

		h := NewValidatePaymentHandler(repo, bus)
		res, err := h.Handle(ctx, ValidatePaymentCommand{
			PracticanteID: id,
			Actor:         actorRegistro,
			Decision:      DecisionApprove,
		})
		require.NoError(t, err)
		assert.Equal(t, "pago_validado", res.Estado)
		assert.True(t, bus.has(shared.EventPagoValidado))
	})

	t.Run("rejection requires comments", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := crearPreinscrito(t, repo, "1090123456")
		subirComprobante(t, repo, id)

		h := NewValidatePaymentHandler(repo, nil)
		_, err := h.Handle(ctx, ValidatePaymentCommand{
			PracticanteID: id,
			Actor:         actorRegistro,
			Decision:      DecisionReject,
			Comentarios:   "   ",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, practicante.ErrComentariosRequeridos)
		assert.True(t, shared.IsValidation(err))

		// The rejected validation must not have moved the record.
		p, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, practicante.EstadoPagoPendiente, p.Estado)
	})

	t.Run("student cannot validate", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := crearPreinscrito(t, repo, "1090123456")
		subirComprobante(t, repo, id)

		h := NewValidatePaymentHandler(repo, nil)
		_, err := h.Handle(ctx, ValidatePaymentCommand{
			PracticanteID: id,
			Actor:         shared.Principal{SubjectID: id, Rol: shared.RolEstudiante},
			Decision:      DecisionApprove,
		})
		require.Error(t, err)
		assert.True(t, shared.IsForbidden(err))
	})

	t.Run("cannot validate without a receipt on file", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := crearPreinscrito(t, repo, "1090123456")

		h := NewValidatePaymentHandler(repo, nil)
		_, err := h.Handle(ctx, ValidatePaymentCommand{
			PracticanteID: id,
			Actor:         actorRegistro,
			Decision:      DecisionApprove,
		})
		require.Error(t, err)
		assert.True(t, shared.IsInvalidState(err))
	})
}

// avanzarHastaPagoValidado walks a fresh record to pago_validado.
func avanzarHastaPagoValidado(t *testing.T, repo *fakePracticanteRepo, documento string) string {
	t.Helper()
	ctx := context.Background()
	id := crearPreinscrito(t, repo, documento)

	_, err := NewSubmitComprobanteHandler(repo, nil).Handle(ctx, SubmitComprobanteCommand{
		PracticanteID: id,
		Actor:         shared.Principal{SubjectID: id, Rol: shared.RolEstudiante},
		ArchivoURL:    "comprobantes/recibo.pdf",
	})
	require.NoError(t, err)

	_, err = NewValidatePaymentHandler(repo, nil).Handle(ctx, ValidatePaymentCommand{
		PracticanteID: id,
		Actor:         actorRegistro,
		Decision:      DecisionApprove,
	})
	require.NoError(t, err)
	return id
}

func TestCreateStudentAccount(t *testing.T) {
	ctx := context.Background()

	t.Run("admin creates account from pago_validado", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		cuentas := newFakeCuentas(repo)
		bus := &fakeBus{}
		id := avanzarHastaPagoValidado(t, repo, "1090123456")

		h := NewCreateStudentAccountHandler(repo, cuentas, bus)
		res, err := h.Handle(ctx, CreateStudentAccountCommand{
			PracticanteID:      id,
			Actor:              actorAdmin,
			EmailInstitucional: "laura.gomez@fesc.edu.co",
			Password:           "contraseña-segura",
		})
		require.NoError(t, err)
		assert.Equal(t, "estudiante_creado", res.Estado)
		assert.NotEmpty(t, res.UsuarioID)
		assert.Contains(t, cuentas.passwords, "laura.gomez@fesc.edu.co")
		assert.True(t, bus.has(shared.EventEstudianteCreado))

		p, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		assert.NoError(t, p.CheckInvariants())
		assert.True(t, p.Estado.IsTerminal())
	})

	t.Run("registro_control cannot create accounts", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := avanzarHastaPagoValidado(t, repo, "1090123456")

		h := NewCreateStudentAccountHandler(repo, newFakeCuentas(repo), nil)
		_, err := h.Handle(ctx, CreateStudentAccountCommand{
			PracticanteID:      id,
			Actor:              actorRegistro,
			EmailInstitucional: "laura.gomez@fesc.edu.co",
			Password:           "contraseña-segura",
		})
		require.Error(t, err)
		assert.True(t, shared.IsForbidden(err))
	})

	t.Run("non institutional email is rejected", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := avanzarHastaPagoValidado(t, repo, "1090123456")

		h := NewCreateStudentAccountHandler(repo, newFakeCuentas(repo), nil)
		_, err := h.Handle(ctx, CreateStudentAccountCommand{
			PracticanteID:      id,
			Actor:              actorAdmin,
			EmailInstitucional: "laura.gomez@gmail.com",
			Password:           "contraseña-segura",
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("missing institutional email fails the precondition", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		id := avanzarHastaPagoValidado(t, repo, "1090123456")

		h := NewCreateStudentAccountHandler(repo, newFakeCuentas(repo), nil)
		_, err := h.Handle(ctx, CreateStudentAccountCommand{
			PracticanteID: id,
			Actor:         actorAdmin,
			Password:      "contraseña-segura",
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, practicante.ErrSinEmailInstitucional)
		assert.True(t, shared.IsPreconditionFailed(err))
	})

	t.Run("short password is rejected before any read", func(t *testing.T) {
		repo := newFakePracticanteRepo()
		h := NewCreateStudentAccountHandler(repo, newFakeCuentas(repo), nil)
		_, err := h.Handle(ctx, CreateStudentAccountCommand{
			PracticanteID: "cualquiera",
			Actor:         actorAdmin,
			Password:      "corta",
		})
		require.Error(t, err)
		assert.True(t, shared.IsValidation(err))
	})
}

// TestCicloCompletoConRechazo covers the full happy-path-with-detour:
// preinscription, receipt, rejection, resubmission, approval, account.
func TestCicloCompletoConRechazo(t *testing.T) {
	ctx := context.Background()
	repo := newFakePracticanteRepo()
	cuentas := newFakeCuentas(repo)
	bus := &fakeBus{}

	id := crearPreinscrito(t, repo, "1090123456")
	estudiante := shared.Principal{SubjectID: id, Rol: shared.RolEstudiante}

	comprobantes := NewSubmitComprobanteHandler(repo, bus)
	validaciones := NewValidatePaymentHandler(repo, bus)

	// First receipt, rejected as unreadable.
	_, err := comprobantes.Handle(ctx, SubmitComprobanteCommand{
		PracticanteID: id, Actor: estudiante, ArchivoURL: "comprobantes/v1.pdf",
	})
	require.NoError(t, err)

	res, err := validaciones.Handle(ctx, ValidatePaymentCommand{
		PracticanteID: id, Actor: actorRegistro, Decision: DecisionReject,
		Comentarios: "comprobante ilegible, vuelva a escanear",
	})
	require.NoError(t, err)
	assert.Equal(t, "rechazado", res.Estado)

	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "comprobante ilegible, vuelva a escanear", p.ValidacionPago.Comentarios)

	// Re-entry with a new receipt.
	resCom, err := comprobantes.Handle(ctx, SubmitComprobanteCommand{
		PracticanteID: id, Actor: estudiante, ArchivoURL: "comprobantes/v2.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, "pago_pendiente", resCom.Estado)

	res, err = validaciones.Handle(ctx, ValidatePaymentCommand{
		PracticanteID: id, Actor: actorRegistro, Decision: DecisionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, "pago_validado", res.Estado)

	// Account creation closes the pipeline.
	resCuenta, err := NewCreateStudentAccountHandler(repo, cuentas, bus).Handle(ctx, CreateStudentAccountCommand{
		PracticanteID:      id,
		Actor:              actorAdmin,
		EmailInstitucional: "laura.gomez@fesc.edu.co",
		Password:           "contraseña-segura",
	})
	require.NoError(t, err)
	assert.Equal(t, "estudiante_creado", resCuenta.Estado)

	// Terminal: nothing moves the record anymore.
	_, err = comprobantes.Handle(ctx, SubmitComprobanteCommand{
		PracticanteID: id, Actor: actorAdmin, ArchivoURL: "comprobantes/v3.pdf",
	})
	require.Error(t, err)
	assert.True(t, shared.IsInvalidState(err))
}
