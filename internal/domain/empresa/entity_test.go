package empresa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

func nuevaSolicitud(t *testing.T) *SolicitudEmpresa {
	t.Helper()
	s, err := NewSolicitud(NewSolicitudParams{
		ID:            "3f1b8a52-9f10-4c6e-8a24-1d2e3f4a5b6c",
		Nit:           "900123456-7",
		RazonSocial:   "Comercializadora del Norte SAS",
		EmailContacto: shared.Email("gerencia@cnorte.com"),
		Practicantes: []PracticanteSolicitado{
			{Perfil: "Auxiliar contable", Programa: "Contaduría", Cantidad: 2},
		},
	})
	require.NoError(t, err)
	return s
}

func TestNewSolicitud(t *testing.T) {
	s := nuevaSolicitud(t)
	assert.Equal(t, EstadoPendienteRevision, s.Estado)
	assert.Equal(t, 2, s.TotalPracticantes())
}

func TestNewSolicitud_SinPerfilesFalla(t *testing.T) {
	_, err := NewSolicitud(NewSolicitudParams{
		ID:            "3f1b8a52-9f10-4c6e-8a24-1d2e3f4a5b6c",
		Nit:           "900123456-7",
		RazonSocial:   "Empresa SAS",
		EmailContacto: shared.Email("a@b.com"),
	})
	assert.True(t, shared.IsValidation(err))
}

func TestCicloRevision(t *testing.T) {
	s := nuevaSolicitud(t)

	require.NoError(t, s.IniciarRevision("director-1"))
	assert.Equal(t, EstadoEnRevision, s.Estado)

	// No se puede tomar dos veces.
	err := s.IniciarRevision("director-2")
	assert.True(t, shared.IsInvalidState(err))

	require.NoError(t, s.Decidir(EstadoAprobada, "director-1", "perfiles adecuados"))
	assert.Equal(t, EstadoAprobada, s.Estado)
	assert.Equal(t, "perfiles adecuados", s.NotasDirector)
	assert.NotNil(t, s.FechaDecision)
}

func TestDecidir_RechazoDirecto(t *testing.T) {
	s := nuevaSolicitud(t)

	// Atajo: pendiente_revision -> rechazada sin pasar por en_revision.
	require.NoError(t, s.Decidir(EstadoRechazada, "director-1", "empresa sin convenio"))
	assert.Equal(t, EstadoRechazada, s.Estado)
}

func TestDecidir_AprobacionDirectaNoExiste(t *testing.T) {
	s := nuevaSolicitud(t)
	err := s.Decidir(EstadoAprobada, "director-1", "")
	assert.True(t, shared.IsInvalidState(err))
	assert.Equal(t, EstadoPendienteRevision, s.Estado)
}

func TestEstadoTerminalEsInmutable(t *testing.T) {
	s := nuevaSolicitud(t)
	require.NoError(t, s.IniciarRevision("director-1"))
	require.NoError(t, s.Decidir(EstadoRechazada, "director-1", "sin cupo"))

	assert.True(t, shared.IsInvalidState(s.IniciarRevision("director-2")))
	assert.True(t, shared.IsInvalidState(s.Decidir(EstadoAprobada, "director-2", "")))
	assert.True(t, shared.IsInvalidState(s.ActualizarNotas("ya no aplica")))
	assert.Equal(t, EstadoRechazada, s.Estado)
	assert.Equal(t, "sin cupo", s.NotasDirector)
}

func TestActualizarNotas_NoCambiaEstado(t *testing.T) {
	s := nuevaSolicitud(t)
	require.NoError(t, s.ActualizarNotas("pendiente documentos de cámara de comercio"))
	assert.Equal(t, EstadoPendienteRevision, s.Estado)

	require.NoError(t, s.IniciarRevision("director-1"))
	require.NoError(t, s.ActualizarNotas("documentos recibidos"))
	assert.Equal(t, EstadoEnRevision, s.Estado)
	assert.Equal(t, "documentos recibidos", s.NotasDirector)
}

func TestDecidir_DecisionInvalida(t *testing.T) {
	s := nuevaSolicitud(t)
	err := s.Decidir(EstadoEnRevision, "director-1", "")
	assert.True(t, shared.IsValidation(err))
}
