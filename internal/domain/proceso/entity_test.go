package proceso

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

func f(v float64) *float64 { return &v }

func TestPromedioNotas(t *testing.T) {
	tests := []struct {
		name  string
		notas []*float64
		want  *float64
	}{
		{"todas nulas devuelve nil", []*float64{nil, nil, nil, nil}, nil},
		{"ignora las nulas", []*float64{f(4.0), nil, f(3.0), nil}, f(3.5)},
		{"todas presentes", []*float64{f(4.0), f(3.0), f(5.0), f(2.0)}, f(3.5)},
		{"una sola nota", []*float64{nil, nil, f(4.3), nil}, f(4.3)},
		{"redondea a dos decimales", []*float64{f(4.0), f(3.0), f(3.0), nil}, f(3.33)},
		{"cero cuenta como nota", []*float64{f(0.0), f(4.0), nil, nil}, f(2.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PromedioNotas(tt.notas)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, *tt.want, *got, 0.0001)
		})
	}
}

func TestSetNota(t *testing.T) {
	p, err := NewProceso("pr1", "est-1", "g1")
	require.NoError(t, err)

	require.NoError(t, p.SetNota(0, f(4.0)))
	require.NoError(t, p.SetNota(2, f(3.0)))

	prom := p.Evaluacion.Promedio()
	require.NotNil(t, prom)
	assert.InDelta(t, 3.5, *prom, 0.0001)

	// Fuera de escala o de índice.
	assert.True(t, shared.IsValidation(p.SetNota(1, f(5.1))))
	assert.True(t, shared.IsValidation(p.SetNota(4, f(3.0))))
	assert.True(t, shared.IsValidation(p.SetNota(-1, f(3.0))))

	// nil borra la nota.
	require.NoError(t, p.SetNota(0, nil))
	require.NoError(t, p.SetNota(2, nil))
	assert.Nil(t, p.Evaluacion.Promedio())
}

func TestSetRecurso(t *testing.T) {
	p, err := NewProceso("pr1", "est-1", "g1")
	require.NoError(t, err)

	require.NoError(t, p.SetRecurso(SeccionARL, "", "r-arl"))
	require.NoError(t, p.SetRecurso(SeccionAtlas, "autorizacion_docente", "r-ad"))
	require.NoError(t, p.SetRecurso(SeccionAtlas, "relacion_obras", "r-ro"))
	require.NoError(t, p.SetRecurso(SeccionCertificado, "", "r-cert"))

	assert.Equal(t, "r-arl", p.ArlID)
	assert.Equal(t, "r-ad", p.AtlasDocenteID)
	assert.Equal(t, "r-ro", p.AtlasObrasID)

	assert.Error(t, p.SetRecurso(SeccionAtlas, "otro", "r-x"))
	assert.Error(t, p.SetRecurso(SeccionAnexos, "", "r-x"))
}

func TestRecursosVinculados_CertificadoSoloEnConsultoria(t *testing.T) {
	p, err := NewProceso("pr1", "est-1", "g1")
	require.NoError(t, err)
	require.NoError(t, p.SetRecurso(SeccionARL, "", "r-arl"))
	require.NoError(t, p.SetRecurso(SeccionCertificado, "", "r-cert"))

	vinculados := p.RecursosVinculados()
	assert.Contains(t, vinculados, "arl")
	assert.NotContains(t, vinculados, "certificado")

	assert.True(t, p.ToggleConsultoria())
	vinculados = p.RecursosVinculados()
	assert.Contains(t, vinculados, "certificado")

	assert.False(t, p.ToggleConsultoria())
}

func TestAgregarAnexo(t *testing.T) {
	p, err := NewProceso("pr1", "est-1", "g1")
	require.NoError(t, err)

	require.NoError(t, p.AgregarAnexo("a1"))
	require.NoError(t, p.AgregarAnexo("a2"))
	assert.Equal(t, []string{"a1", "a2"}, p.AnexoIDs)

	err = p.AgregarAnexo("a1")
	assert.True(t, shared.IsConflict(err))
}

func TestSeccion_WritableByStudent(t *testing.T) {
	assert.True(t, SeccionAutoevaluacion.WritableByStudent())
	assert.True(t, SeccionSeguimiento.WritableByStudent())
	assert.False(t, SeccionEvaluacion.WritableByStudent())
	assert.False(t, SeccionARL.WritableByStudent())
	assert.False(t, SeccionCertificado.WritableByStudent())
}
