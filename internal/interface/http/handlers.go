package http

import (
	"fmt"
	"mime/multipart"
	"net/http"

	"github.com/fesc-practicas/practicas-hub/internal/application/command"
	"github.com/fesc-practicas/practicas-hub/internal/application/query"
	"github.com/fesc-practicas/practicas-hub/internal/domain/proceso"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/internal/infrastructure/storage"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleRoot returns basic service information.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSONError(w, http.StatusNotFound, "not_found", "Endpoint not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"service": "practicas-hub",
		"status":  "running",
		"uptime":  s.Uptime().String(),
	})
}

// handleLive is the liveness probe: the process is up.
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

// handleHealth is the readiness probe: the backing services answer.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	status := s.deps.HealthChecker.Check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

// ══════════════════════════════════════════════════════════════════════════════
// AUTH HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleLogin exchanges student credentials for a JWT. Staff tokens are issued
// out of band by the operations team.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	practicanteID, err := s.deps.Credentials.VerificarCredenciales(r.Context(), req.Email, req.Password)
	if err != nil {
		// A wrong email and a wrong password are indistinguishable on purpose.
		writeJSONError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
		return
	}

	principal := shared.Principal{SubjectID: practicanteID, Rol: shared.RolEstudiante}
	token, err := s.deps.Tokens.Issue(principal)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		SubjectID: practicanteID,
		Rol:       principal.Rol.String(),
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// STUDENT PIPELINE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleSubmitPreinscripcion accepts the public preinscription form.
func (s *Server) handleSubmitPreinscripcion(w http.ResponseWriter, r *http.Request) {
	var req preinscripcionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.SubmitPreinscripcion.Handle(r.Context(), command.SubmitPreinscripcionCommand{
		Documento:     req.Documento,
		Nombres:       req.Nombres,
		Apellidos:     req.Apellidos,
		EmailPersonal: req.EmailPersonal,
		Telefono:      req.Telefono,
		Programa:      req.Programa,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleSubmitComprobante uploads the payment receipt and records it. The
// file goes to object storage first; the pipeline only ever sees the opaque
// reference.
func (s *Server) handleSubmitComprobante(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}
	practicanteID := r.PathValue("id")

	file, header, err := s.formFile(r, "archivo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer file.Close()

	key := storage.ComprobanteKey(practicanteID, header.Filename)
	ref, err := s.deps.Files.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.SubmitComprobante.Handle(r.Context(), command.SubmitComprobanteCommand{
		PracticanteID: practicanteID,
		Actor:         principal,
		ArchivoURL:    ref,
		ContentType:   header.Header.Get("Content-Type"),
		Size:          header.Size,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleValidatePayment records the registro y control decision on a receipt.
func (s *Server) handleValidatePayment(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req validacionRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ValidatePayment.Handle(r.Context(), command.ValidatePaymentCommand{
		PracticanteID: r.PathValue("id"),
		Actor:         principal,
		Decision:      command.Decision(req.Decision),
		Comentarios:   req.Comentarios,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCreateStudentAccount provisions the institutional account for a
// validated practicante.
func (s *Server) handleCreateStudentAccount(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req cuentaRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.CreateStudentAccount.Handle(r.Context(), command.CreateStudentAccountCommand{
		PracticanteID:      r.PathValue("id"),
		Actor:              principal,
		EmailInstitucional: req.EmailInstitucional,
		Password:           req.Password,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetTablero returns the staff board of practicantes.
func (s *Server) handleGetTablero(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.GetTablero.Handle(r.Context(), query.GetTableroPracticantesQuery{
		Actor:  principal,
		Estado: getQueryParam(r, "estado", ""),
		Limit:  getQueryParamInt(r, "limit", 50),
		Offset: getQueryParamInt(r, "offset", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// SOLICITUD HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleCrearSolicitud accepts the public company request form.
func (s *Server) handleCrearSolicitud(w http.ResponseWriter, r *http.Request) {
	var req crearSolicitudRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	practicantes := make([]command.PracticanteSolicitadoInput, 0, len(req.Practicantes))
	for _, p := range req.Practicantes {
		practicantes = append(practicantes, command.PracticanteSolicitadoInput{
			Perfil:    p.Perfil,
			Programa:  p.Programa,
			Cantidad:  p.Cantidad,
			Funciones: p.Funciones,
		})
	}

	result, err := s.deps.CrearSolicitud.Handle(r.Context(), command.CrearSolicitudCommand{
		Nit:           req.Nit,
		RazonSocial:   req.RazonSocial,
		EmailContacto: req.EmailContacto,
		Telefono:      req.Telefono,
		Direccion:     req.Direccion,
		Practicantes:  practicantes,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleGetSolicitudes lists company requests for staff review.
func (s *Server) handleGetSolicitudes(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.GetSolicitudes.Handle(r.Context(), query.GetSolicitudesQuery{
		Actor:  principal,
		Estado: getQueryParam(r, "estado", ""),
		Limit:  getQueryParamInt(r, "limit", 50),
		Offset: getQueryParamInt(r, "offset", 0),
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleBeginReview moves a solicitud from recibida to en revision.
func (s *Server) handleBeginReview(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.ReviewSolicitud.HandleBeginReview(r.Context(), command.BeginReviewCommand{
		SolicitudID: r.PathValue("id"),
		Actor:       principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleDecideSolicitud records the terminal decision on a solicitud.
func (s *Server) handleDecideSolicitud(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req decisionSolicitudRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewSolicitud.HandleDecide(r.Context(), command.DecideSolicitudCommand{
		SolicitudID: r.PathValue("id"),
		Actor:       principal,
		Decision:    req.Decision,
		Notas:       req.Notas,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleUpdateNotas updates the internal review notes on a solicitud.
func (s *Server) handleUpdateNotas(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req notasSolicitudRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewSolicitud.HandleUpdateNotas(r.Context(), command.UpdateNotasCommand{
		SolicitudID: r.PathValue("id"),
		Actor:       principal,
		Notas:       req.Notas,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// PROCESO HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetOrCreateProceso opens (or returns) the proceso for a student in a
// grupo. 200 when it already existed, 201 when this call created it.
func (s *Server) handleGetOrCreateProceso(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req getOrCreateProcesoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.GetOrCreateProceso.Handle(r.Context(), command.GetOrCreateProcesoCommand{
		EstudianteID: req.EstudianteID,
		GrupoID:      req.GrupoID,
		Actor:        principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, result.Proceso)
}

// handleGetProcesoDetalle returns the full proceso view for a student+grupo.
func (s *Server) handleGetProcesoDetalle(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.GetProcesoDetalle.Handle(r.Context(), query.GetProcesoDetalleQuery{
		EstudianteID: getQueryParam(r, "estudiante_id", ""),
		GrupoID:      getQueryParam(r, "grupo_id", ""),
		Actor:        principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleGetCompletion returns the completion summary of a proceso.
func (s *Server) handleGetCompletion(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.GetCompletion.Handle(r.Context(), query.GetCompletionQuery{
		ProcesoID: r.PathValue("id"),
		Actor:     principal,
		SkipCache: getQueryParam(r, "refresh", "") == "true",
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleUpdateSeccion writes one section of a proceso. Evaluacion and
// autoevaluacion take a JSON body; the delivery sections (arl, atlas,
// certificado, seguimiento) take a multipart upload.
func (s *Server) handleUpdateSeccion(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	procesoID := r.PathValue("id")
	seccion := proceso.Seccion(r.PathValue("seccion"))

	cmd := command.UpdateSeccionCommand{
		ProcesoID: procesoID,
		Actor:     principal,
		Seccion:   seccion,
	}

	switch seccion {
	case proceso.SeccionEvaluacion, proceso.SeccionAutoevaluacion:
		var req updateSeccionRequest
		if err := decodeAndValidate(r, &req); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		cmd.Notas = req.Notas
		cmd.Enlace = req.Enlace
		cmd.Observaciones = req.Observaciones
		cmd.Autoevaluacion = req.Autoevaluacion

	default:
		file, header, err := s.formFile(r, "archivo")
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_upload", err.Error())
			return
		}
		defer file.Close()

		key := storage.RecursoKey(procesoID, string(seccion), header.Filename)
		ref, err := s.deps.Files.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}

		cmd.SubtipoAtlas = r.FormValue("subtipo")
		cmd.SeguimientoID = r.FormValue("seguimiento_id")
		cmd.EntregaURL = ref
		cmd.ContentType = header.Header.Get("Content-Type")
		cmd.Size = header.Size
	}

	result, err := s.deps.UpdateSeccion.Handle(r.Context(), cmd)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleAttachAnexo uploads and attaches an additional document.
func (s *Server) handleAttachAnexo(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	procesoID := r.PathValue("id")

	file, header, err := s.formFile(r, "archivo")
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_upload", err.Error())
		return
	}
	defer file.Close()

	key := storage.RecursoKey(procesoID, "anexo", header.Filename)
	ref, err := s.deps.Files.Upload(r.Context(), key, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	result, err := s.deps.AttachAnexo.Handle(r.Context(), command.AttachAnexoCommand{
		ProcesoID:   procesoID,
		Actor:       principal,
		Titulo:      r.FormValue("titulo"),
		EntregaURL:  ref,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleToggleConsultoria flips the consultoria mode of a proceso.
func (s *Server) handleToggleConsultoria(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.ToggleConsultoria.Handle(r.Context(), command.ToggleConsultoriaCommand{
		ProcesoID: r.PathValue("id"),
		Actor:     principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// RECURSO & SEGUIMIENTO HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleReviewRecurso records a staff review action on a resource.
func (s *Server) handleReviewRecurso(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req reviewRecursoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.ReviewRecurso.Handle(r.Context(), command.ReviewRecursoCommand{
		RecursoID:        r.PathValue("id"),
		Actor:            principal,
		Action:           command.RecursoAction(req.Action),
		Nota:             req.Nota,
		NotasAdicionales: req.NotasAdicionales,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCreateSeguimiento opens a seguimiento round for a grupo.
func (s *Server) handleCreateSeguimiento(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	var req createSeguimientoRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	result, err := s.deps.Seguimientos.HandleCreate(r.Context(), command.CreateSeguimientoCommand{
		GrupoID:       r.PathValue("grupoID"),
		Actor:         principal,
		Titulo:        req.Titulo,
		FechaLimite:   req.FechaLimite,
		EstudianteIDs: req.EstudianteIDs,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, result)
}

// handleDeleteSeguimiento removes a seguimiento round and its entries.
func (s *Server) handleDeleteSeguimiento(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	err := s.deps.Seguimientos.HandleDelete(r.Context(), command.DeleteSeguimientoCommand{
		SeguimientoID: r.PathValue("id"),
		Actor:         principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handleSeguimientoStats returns delivery statistics per seguimiento round.
func (s *Server) handleSeguimientoStats(w http.ResponseWriter, r *http.Request) {
	principal, ok := principalFrom(r.Context())
	if !ok {
		writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing principal")
		return
	}

	result, err := s.deps.GetSeguimientoStats.Handle(r.Context(), query.GetSeguimientoStatsQuery{
		GrupoID: r.PathValue("grupoID"),
		Actor:   principal,
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// UPLOAD HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// formFile extracts one uploaded file from a multipart request, enforcing the
// configured size cap before anything is read.
func (s *Server) formFile(r *http.Request, field string) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(nil, r.Body, s.config.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		return nil, nil, fmt.Errorf("file exceeds the upload limit or the form is malformed: %w", err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, nil, fmt.Errorf("missing file field %q", field)
	}
	if header.Size > s.config.MaxUploadBytes {
		file.Close()
		return nil, nil, fmt.Errorf("file exceeds the %d byte upload limit", s.config.MaxUploadBytes)
	}
	return file, header, nil
}
