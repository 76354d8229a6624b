package practicante

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

func nuevoPracticante(t *testing.T) *Practicante {
	t.Helper()
	p, err := NewPracticante(NewPracticanteParams{
		ID:            "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
		Documento:     shared.DocumentoIdentidad("1090123456"),
		Nombres:       "Ana María",
		Apellidos:     "Rojas",
		EmailPersonal: shared.Email("ana.rojas@gmail.com"),
		Telefono:      "3001234567",
		Programa:      "Administración de Negocios Internacionales",
	})
	require.NoError(t, err)
	return p
}

func TestNewPracticante(t *testing.T) {
	p := nuevoPracticante(t)

	assert.Equal(t, EstadoPreinscrito, p.Estado)
	assert.Equal(t, ValidacionPendiente, p.ValidacionPago.Estado)
	assert.Empty(t, p.EstudianteInfo.UsuarioID)
	assert.NoError(t, p.CheckInvariants())
}

func TestNewPracticante_Validation(t *testing.T) {
	base := NewPracticanteParams{
		ID:            "7ed99bd0-87b2-4dbb-a97b-596c3f29c49b",
		Documento:     shared.DocumentoIdentidad("1090123456"),
		Nombres:       "Ana",
		Apellidos:     "Rojas",
		EmailPersonal: shared.Email("ana@gmail.com"),
		Programa:      "Contaduría",
	}

	t.Run("documento invalido", func(t *testing.T) {
		params := base
		params.Documento = "abc"
		_, err := NewPracticante(params)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("sin apellidos", func(t *testing.T) {
		params := base
		params.Apellidos = "  "
		_, err := NewPracticante(params)
		assert.True(t, shared.IsValidation(err))
	})

	t.Run("email invalido", func(t *testing.T) {
		params := base
		params.EmailPersonal = "no-es-correo"
		_, err := NewPracticante(params)
		assert.True(t, shared.IsValidation(err))
	})
}

func TestSubmitComprobante(t *testing.T) {
	p := nuevoPracticante(t)

	err := p.SubmitComprobante("https://files/comprobante.pdf", "application/pdf", 2048)
	require.NoError(t, err)
	assert.Equal(t, EstadoPagoPendiente, p.Estado)
	assert.NotNil(t, p.ValidacionPago.FechaSubida)

	// Reenvío mientras sigue pendiente.
	err = p.SubmitComprobante("https://files/comprobante-v2.pdf", "application/pdf", 4096)
	require.NoError(t, err)
	assert.Equal(t, "https://files/comprobante-v2.pdf", p.ValidacionPago.ComprobanteURL)
}

func TestSubmitComprobante_ReferenciaVacia(t *testing.T) {
	p := nuevoPracticante(t)
	err := p.SubmitComprobante("   ", "", 0)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, EstadoPreinscrito, p.Estado)
}

func TestAprobarPago(t *testing.T) {
	p := nuevoPracticante(t)
	require.NoError(t, p.SubmitComprobante("https://files/c.pdf", "application/pdf", 100))

	err := p.AprobarPago("admin-1", "todo en orden")
	require.NoError(t, err)
	assert.Equal(t, EstadoPagoValidado, p.Estado)
	assert.Equal(t, ValidacionAprobada, p.ValidacionPago.Estado)
	assert.Equal(t, "admin-1", p.ValidacionPago.ValidadoPor)
	assert.NotNil(t, p.ValidacionPago.FechaValidacion)
}

func TestAprobarPago_DesdeEstadoInvalido(t *testing.T) {
	p := nuevoPracticante(t)

	err := p.AprobarPago("admin-1", "")
	assert.True(t, shared.IsInvalidState(err))
	// El estado no cambia ante una arista ilegal.
	assert.Equal(t, EstadoPreinscrito, p.Estado)
}

func TestRechazarPago_SinComentariosFalla(t *testing.T) {
	p := nuevoPracticante(t)
	require.NoError(t, p.SubmitComprobante("https://files/c.pdf", "application/pdf", 100))

	err := p.RechazarPago("admin-1", "   ")
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, EstadoPagoPendiente, p.Estado)
}

func TestCrearCuenta_Precondiciones(t *testing.T) {
	p := nuevoPracticante(t)
	require.NoError(t, p.SubmitComprobante("https://files/c.pdf", "application/pdf", 100))
	require.NoError(t, p.AprobarPago("admin-1", ""))

	// Sin correo institucional: PreconditionFailed.
	err := p.CrearCuenta("user-1", "admin-1")
	assert.True(t, shared.IsPreconditionFailed(err))
	assert.Equal(t, EstadoPagoValidado, p.Estado)

	require.NoError(t, p.AsignarEmailInstitucional(shared.Email("ana.rojas@fesc.edu.co")))
	require.NoError(t, p.CrearCuenta("user-1", "admin-1"))
	assert.Equal(t, EstadoEstudianteCreado, p.Estado)
	assert.Equal(t, "user-1", p.EstudianteInfo.UsuarioID)
	assert.NoError(t, p.CheckInvariants())
}

func TestAsignarEmailInstitucional_DominioAjeno(t *testing.T) {
	p := nuevoPracticante(t)
	err := p.AsignarEmailInstitucional(shared.Email("ana@otrodominio.com"))
	assert.True(t, shared.IsValidation(err))
}

// Escenario completo: preinscripción, rechazo, reenvío, aprobación y cuenta.
func TestCicloCompletoConRechazo(t *testing.T) {
	p := nuevoPracticante(t)

	require.NoError(t, p.SubmitComprobante("https://files/c1.pdf", "application/pdf", 100))
	require.NoError(t, p.RechazarPago("admin-1", "ilegible"))
	assert.Equal(t, EstadoRechazado, p.Estado)
	assert.Equal(t, "ilegible", p.ValidacionPago.Comentarios)

	// Reingreso únicamente con un nuevo comprobante.
	require.NoError(t, p.SubmitComprobante("https://files/c2.pdf", "application/pdf", 100))
	assert.Equal(t, EstadoPagoPendiente, p.Estado)
	assert.Equal(t, ValidacionPendiente, p.ValidacionPago.Estado)

	require.NoError(t, p.AprobarPago("admin-1", ""))
	require.NoError(t, p.AsignarEmailInstitucional(shared.Email("x@fesc.edu.co")))
	require.NoError(t, p.CrearCuenta("user-9", "admin-1"))

	assert.Equal(t, EstadoEstudianteCreado, p.Estado)
	assert.NoError(t, p.CheckInvariants())

	// Terminal: ninguna arista sale de estudiante_creado.
	err := p.SubmitComprobante("https://files/c3.pdf", "application/pdf", 100)
	assert.True(t, shared.IsInvalidState(err))
}

func TestCheckInvariants_UsuarioSinEstado(t *testing.T) {
	p := nuevoPracticante(t)
	p.EstudianteInfo.UsuarioID = "user-1" // corrupción simulada
	assert.Error(t, p.CheckInvariants())
}
