package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/recurso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

var (
	actorProfesor = shared.Principal{SubjectID: "profesor-1", Rol: shared.RolProfesor}
	actorAdmin    = shared.Principal{SubjectID: "admin-1", Rol: shared.RolAdmin}
)

// nuevoRecurso registers a resource in the given state of completeness.
func nuevoRecurso(t *testing.T, repo *fakeRecursoRepo, id string, tipo recurso.Tipo, subtipo recurso.Subtipo, url string, nota *float64, validado bool) {
	t.Helper()
	r, err := recurso.NewRecurso(id, tipo, subtipo, "")
	require.NoError(t, err)
	if url != "" {
		r.ActualizarEntrega(url, "application/pdf", 1024)
	}
	if nota != nil {
		require.NoError(t, r.Calificar(nota, ""))
	}
	if validado {
		r.Validar()
	}
	require.NoError(t, repo.Create(context.Background(), r))
}

func nuevoProceso(t *testing.T, repo *fakeProcesoRepo, id, estudianteID, grupoID string) *proceso.ProcesoPracticas {
	t.Helper()
	p, err := proceso.NewProceso(id, estudianteID, grupoID)
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}

func TestGetCompletion(t *testing.T) {
	ctx := context.Background()

	t.Run("classifies every linked section", func(t *testing.T) {
		procesos := newFakeProcesoRepo()
		recursos := newFakeRecursoRepo()
		p := nuevoProceso(t, procesos, "proc-1", "est-1", "grupo-a")

		// arl complete, atlas docente delivered but ungraded, the rest empty.
		nuevoRecurso(t, recursos, "rec-arl", recurso.TipoARL, recurso.SubtipoNinguno, "arl/ok.pdf", fp(4.5), true)
		nuevoRecurso(t, recursos, "rec-atlas-doc", recurso.TipoAtlas, recurso.SubtipoAutorizacionDocente, "atlas/doc.pdf", nil, false)
		p.ArlID = "rec-arl"
		p.AtlasDocenteID = "rec-atlas-doc"
		require.NoError(t, procesos.Update(ctx, p))

		h := NewGetCompletionHandler(procesos, recursos, nil)
		dto, err := h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor})
		require.NoError(t, err)

		porSeccion := make(map[string]string)
		for _, s := range dto.Secciones {
			porSeccion[s.Seccion] = s.Semaforo
		}
		assert.Equal(t, "verde", porSeccion["arl"])
		assert.Equal(t, "amarillo", porSeccion["atlas_docente"])
		assert.Equal(t, "rojo", porSeccion["atlas_estudiante"])
		assert.Equal(t, "rojo", porSeccion["atlas_obras"])
		assert.NotContains(t, porSeccion, "certificado")

		assert.Equal(t, 1, dto.Verdes)
		assert.Equal(t, 1, dto.Amarillos)
		assert.Equal(t, 2, dto.Rojos)
		assert.Equal(t, 4, dto.Total)
	})

	t.Run("dangling reference degrades to rojo", func(t *testing.T) {
		procesos := newFakeProcesoRepo()
		recursos := newFakeRecursoRepo()
		p := nuevoProceso(t, procesos, "proc-1", "est-1", "grupo-a")
		p.ArlID = "rec-borrado"
		p.AnexoIDs = []string{"anexo-borrado"}
		require.NoError(t, procesos.Update(ctx, p))

		h := NewGetCompletionHandler(procesos, recursos, nil)
		dto, err := h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor})
		require.NoError(t, err)

		assert.Equal(t, "rojo", dto.Secciones[0].Semaforo)
		require.Len(t, dto.Anexos, 1)
		assert.Equal(t, "rojo", dto.Anexos[0].Semaforo)
		assert.Equal(t, 5, dto.Total)
		assert.Equal(t, 5, dto.Rojos)
	})

	t.Run("certificado tab appears only for consultorias", func(t *testing.T) {
		procesos := newFakeProcesoRepo()
		recursos := newFakeRecursoRepo()
		p := nuevoProceso(t, procesos, "proc-1", "est-1", "grupo-a")
		nuevoRecurso(t, recursos, "rec-cert", recurso.TipoCertificado, recurso.SubtipoNinguno, "cert/ok.pdf", fp(5.0), true)
		p.CertificadoID = "rec-cert"
		p.EsConsultoria = true
		require.NoError(t, procesos.Update(ctx, p))

		h := NewGetCompletionHandler(procesos, recursos, nil)
		dto, err := h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor})
		require.NoError(t, err)

		var cert *SeccionSemaforoDTO
		for i := range dto.Secciones {
			if dto.Secciones[i].Seccion == "certificado" {
				cert = &dto.Secciones[i]
			}
		}
		require.NotNil(t, cert)
		assert.Equal(t, "verde", cert.Semaforo)
	})

	t.Run("cache is filled on miss and served on hit", func(t *testing.T) {
		procesos := newFakeProcesoRepo()
		recursos := newFakeRecursoRepo()
		nuevoProceso(t, procesos, "proc-1", "est-1", "grupo-a")
		cache := newFakeCache()

		h := NewGetCompletionHandler(procesos, recursos, cache)
		_, err := h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.sets)
		assert.Equal(t, 0, cache.hits)

		_, err = h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor})
		require.NoError(t, err)
		assert.Equal(t, 1, cache.hits)

		// SkipCache recomputes and rewrites.
		_, err = h.Handle(ctx, GetCompletionQuery{ProcesoID: "proc-1", Actor: actorProfesor, SkipCache: true})
		require.NoError(t, err)
		assert.Equal(t, 2, cache.sets)
	})

	t.Run("students only read their own completion", func(t *testing.T) {
		procesos := newFakeProcesoRepo()
		recursos := newFakeRecursoRepo()
		nuevoProceso(t, procesos, "proc-1", "est-1", "grupo-a")

		h := NewGetCompletionHandler(procesos, recursos, nil)
		_, err := h.Handle(ctx, GetCompletionQuery{
			ProcesoID: "proc-1",
			Actor:     shared.Principal{SubjectID: "est-2", Rol: shared.RolEstudiante},
		})
		require.Error(t, err)
		assert.True(t, shared.IsForbidden(err))

		dto, err := h.Handle(ctx, GetCompletionQuery{
			ProcesoID: "proc-1",
			Actor:     shared.Principal{SubjectID: "est-1", Rol: shared.RolEstudiante},
		})
		require.NoError(t, err)
		assert.Equal(t, "est-1", dto.EstudianteID)
	})

	t.Run("missing proceso reports not found", func(t *testing.T) {
		h := NewGetCompletionHandler(newFakeProcesoRepo(), newFakeRecursoRepo(), nil)
		_, err := h.Handle(ctx, GetCompletionQuery{ProcesoID: "no-existe", Actor: actorProfesor})
		require.Error(t, err)
		assert.True(t, shared.IsNotFound(err))
	})
}
