// Package http implements the REST API of the practicas hub: the public
// preinscription and company forms, the staff review endpoints and the
// student practicum views.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/fesc-practicas/practicas-hub/internal/application/command"
	"github.com/fesc-practicas/practicas-hub/internal/application/query"
	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
	"github.com/fesc-practicas/practicas-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SERVER CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// Config contains HTTP server configuration.
type Config struct {
	// Host - address to bind (default: "0.0.0.0").
	Host string

	// Port - port to listen on (default: 8080).
	Port int

	// ReadTimeout - maximum duration for reading the entire request.
	ReadTimeout time.Duration

	// WriteTimeout - maximum duration for writing the response.
	WriteTimeout time.Duration

	// IdleTimeout - maximum duration for idle connections.
	IdleTimeout time.Duration

	// MaxHeaderBytes - maximum size of request headers.
	MaxHeaderBytes int

	// MaxUploadBytes - maximum size of multipart uploads.
	MaxUploadBytes int64

	// EnableCORS - enable CORS headers.
	EnableCORS bool

	// AllowedOrigins - allowed origins for CORS.
	AllowedOrigins []string

	// RateLimitPerMinute - requests per minute per client (0 = disabled).
	RateLimitPerMinute int
}

// DefaultConfig returns default server configuration.
func DefaultConfig() Config {
	return Config{
		Host:               "0.0.0.0",
		Port:               8080,
		ReadTimeout:        15 * time.Second,
		WriteTimeout:       15 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxHeaderBytes:     1 << 20,  // 1 MB
		MaxUploadBytes:     10 << 20, // 10 MB
		EnableCORS:         true,
		AllowedOrigins:     []string{"*"},
		RateLimitPerMinute: 100,
	}
}

// Address returns the server address string.
func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ══════════════════════════════════════════════════════════════════════════════
// DEPENDENCIES
// ══════════════════════════════════════════════════════════════════════════════

// CredentialVerifier checks a login pair and returns the practicante id.
type CredentialVerifier interface {
	VerificarCredenciales(ctx context.Context, email, password string) (string, error)
}

// FileUploader stores an uploaded document and returns its opaque reference.
type FileUploader interface {
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// RateLimiter decides whether a client may perform one more request.
type RateLimiter interface {
	Allow(ctx context.Context, identifier, action string) (bool, error)
}

// HealthStatus reports the readiness of the backing services.
type HealthStatus struct {
	Healthy    bool              `json:"healthy"`
	Message    string            `json:"message,omitempty"`
	Components map[string]string `json:"components,omitempty"`
	CheckedAt  time.Time         `json:"checked_at"`
}

// HealthChecker probes the backing services.
type HealthChecker interface {
	Check(ctx context.Context) HealthStatus
}

// Dependencies contains all dependencies required by the HTTP handlers.
type Dependencies struct {
	// Command handlers (CQRS write side)
	SubmitPreinscripcion *command.SubmitPreinscripcionHandler
	SubmitComprobante    *command.SubmitComprobanteHandler
	ValidatePayment      *command.ValidatePaymentHandler
	CreateStudentAccount *command.CreateStudentAccountHandler
	CrearSolicitud       *command.CrearSolicitudHandler
	ReviewSolicitud      *command.ReviewSolicitudHandler
	GetOrCreateProceso   *command.GetOrCreateProcesoHandler
	UpdateSeccion        *command.UpdateSeccionHandler
	AttachAnexo          *command.AttachAnexoHandler
	ToggleConsultoria    *command.ToggleConsultoriaHandler
	ReviewRecurso        *command.ReviewRecursoHandler
	Seguimientos         *command.SeguimientoHandler

	// Query handlers (CQRS read side)
	GetCompletion       *query.GetCompletionHandler
	GetProcesoDetalle   *query.GetProcesoDetalleHandler
	GetSeguimientoStats *query.GetSeguimientoStatsHandler
	GetSolicitudes      *query.GetSolicitudesHandler
	GetTablero          *query.GetTableroPracticantesHandler

	// Infrastructure
	Tokens        *TokenManager
	Credentials   CredentialVerifier
	Files         FileUploader
	RateLimiter   RateLimiter
	HealthChecker HealthChecker
	Logger        *logger.Logger
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER
// ══════════════════════════════════════════════════════════════════════════════

// Server represents the HTTP server.
type Server struct {
	config     Config
	deps       Dependencies
	httpServer *http.Server
	router     *http.ServeMux
	logger     *logger.Logger

	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// NewServer creates a new HTTP server with the given configuration and dependencies.
func NewServer(config Config, deps Dependencies) *Server {
	s := &Server{
		config: config,
		deps:   deps,
		router: http.NewServeMux(),
		logger: deps.Logger,
	}

	if s.logger == nil {
		s.logger = logger.Default()
	}
	s.logger = s.logger.With(logger.Component("http"))

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:           config.Address(),
		Handler:        s.buildMiddlewareChain(s.router),
		ReadTimeout:    config.ReadTimeout,
		WriteTimeout:   config.WriteTimeout,
		IdleTimeout:    config.IdleTimeout,
		MaxHeaderBytes: config.MaxHeaderBytes,
	}

	return s
}

// ══════════════════════════════════════════════════════════════════════════════
// ROUTING
// ══════════════════════════════════════════════════════════════════════════════

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// ─────────────────────────────────────────────────────────────────────────
	// Health & Status Endpoints
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /healthz", s.handleHealth) // Kubernetes alias
	s.router.HandleFunc("GET /live", s.handleLive)
	s.router.HandleFunc("GET /", s.handleRoot)

	// ─────────────────────────────────────────────────────────────────────────
	// Public forms: no account exists yet at preinscription time, and the
	// company form is filed by outsiders.
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/auth/login", s.handleLogin)
	s.router.HandleFunc("POST /api/v1/preinscripciones", s.handleSubmitPreinscripcion)
	s.router.HandleFunc("POST /api/v1/solicitudes", s.handleCrearSolicitud)

	// ─────────────────────────────────────────────────────────────────────────
	// Practicante pipeline (staff + owner)
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/practicantes/{id}/comprobante", s.authed(s.handleSubmitComprobante))
	s.router.HandleFunc("POST /api/v1/practicantes/{id}/validacion", s.authed(s.handleValidatePayment))
	s.router.HandleFunc("POST /api/v1/practicantes/{id}/cuenta", s.authed(s.handleCreateStudentAccount))
	s.router.HandleFunc("GET /api/v1/practicantes", s.authed(s.handleGetTablero))

	// ─────────────────────────────────────────────────────────────────────────
	// Solicitud review (staff)
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("GET /api/v1/solicitudes", s.authed(s.handleGetSolicitudes))
	s.router.HandleFunc("POST /api/v1/solicitudes/{id}/revision", s.authed(s.handleBeginReview))
	s.router.HandleFunc("POST /api/v1/solicitudes/{id}/decision", s.authed(s.handleDecideSolicitud))
	s.router.HandleFunc("PUT /api/v1/solicitudes/{id}/notas", s.authed(s.handleUpdateNotas))

	// ─────────────────────────────────────────────────────────────────────────
	// Proceso de prácticas
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/procesos", s.authed(s.handleGetOrCreateProceso))
	s.router.HandleFunc("GET /api/v1/procesos/detalle", s.authed(s.handleGetProcesoDetalle))
	s.router.HandleFunc("GET /api/v1/procesos/{id}/completion", s.authed(s.handleGetCompletion))
	s.router.HandleFunc("PUT /api/v1/procesos/{id}/secciones/{seccion}", s.authed(s.handleUpdateSeccion))
	s.router.HandleFunc("POST /api/v1/procesos/{id}/anexos", s.authed(s.handleAttachAnexo))
	s.router.HandleFunc("POST /api/v1/procesos/{id}/consultoria", s.authed(s.handleToggleConsultoria))

	// ─────────────────────────────────────────────────────────────────────────
	// Recursos & seguimientos
	// ─────────────────────────────────────────────────────────────────────────
	s.router.HandleFunc("POST /api/v1/recursos/{id}/revision", s.authed(s.handleReviewRecurso))
	s.router.HandleFunc("POST /api/v1/grupos/{grupoID}/seguimientos", s.authed(s.handleCreateSeguimiento))
	s.router.HandleFunc("GET /api/v1/grupos/{grupoID}/seguimientos/stats", s.authed(s.handleSeguimientoStats))
	s.router.HandleFunc("DELETE /api/v1/seguimientos/{id}", s.authed(s.handleDeleteSeguimiento))
}

// authed wraps a handler with JWT authentication.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing bearer token")
			return
		}

		principal, err := s.deps.Tokens.Verify(token)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
			return
		}

		next(w, r.WithContext(withPrincipal(r.Context(), principal)))
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIDDLEWARE CHAIN
// ══════════════════════════════════════════════════════════════════════════════

// buildMiddlewareChain wraps the router with all middleware.
func (s *Server) buildMiddlewareChain(handler http.Handler) http.Handler {
	// Apply middleware in reverse order (last middleware wraps first)
	h := handler

	// Request ID middleware
	h = s.requestIDMiddleware(h)

	// Logging middleware
	h = s.loggingMiddleware(h)

	// Recovery middleware (must be early to catch panics)
	h = s.recoveryMiddleware(h)

	// CORS middleware
	if s.config.EnableCORS {
		h = s.corsMiddleware(h)
	}

	// Rate limiting middleware
	if s.deps.RateLimiter != nil && s.config.RateLimitPerMinute > 0 {
		h = s.rateLimitMiddleware(h)
	}

	return h
}

// requestIDMiddleware adds a unique request ID to each request.
func (s *Server) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware logs all HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap response writer to capture status code
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		s.logger.Info("http request",
			logger.String("method", r.Method),
			logger.String("path", r.URL.Path),
			logger.Int("status", rw.statusCode),
			logger.Int64("duration_ms", duration.Milliseconds()),
			logger.String("ip", getClientIP(r)),
			logger.String("request_id", getRequestID(r.Context())),
		)
	})
}

// recoveryMiddleware recovers from panics and returns 500.
func (s *Server) recoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				s.logger.Error("panic recovered",
					logger.Any("error", err),
					logger.String("stack", string(debug.Stack())),
					logger.String("path", r.URL.Path),
					logger.String("request_id", getRequestID(r.Context())),
				)
				writeJSONError(w, http.StatusInternalServerError, "internal_server_error", "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := false
		for _, o := range s.config.AllowedOrigins {
			if o == "*" || o == origin {
				allowed = true
				break
			}
		}

		if allowed {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
		}

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// rateLimitMiddleware applies the shared Redis-backed limit per client IP.
// A broken limiter fails open: turning away every user because Redis is down
// would be worse than a minute without limits.
func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := getClientIP(r)

		ok, err := s.deps.RateLimiter.Allow(r.Context(), ip, "api")
		if err != nil {
			s.logger.Warn("rate limiter unavailable", logger.Err(err))
			ok = true
		}
		if !ok {
			w.Header().Set("Retry-After", "60")
			writeJSONError(w, http.StatusTooManyRequests, "rate_limit_exceeded", "Too many requests, please try again later")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// ══════════════════════════════════════════════════════════════════════════════
// SERVER LIFECYCLE
// ══════════════════════════════════════════════════════════════════════════════

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("server already running")
	}
	s.running = true
	s.startedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info("starting HTTP server", logger.String("address", s.config.Address()))

	err := s.httpServer.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// StartAsync starts the server in a goroutine.
func (s *Server) StartAsync() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = false
	s.mu.Unlock()

	s.logger.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

// Uptime returns the server uptime.
func (s *Server) Uptime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startedAt)
}

// Address returns the server address.
func (s *Server) Address() string {
	return s.config.Address()
}

// ══════════════════════════════════════════════════════════════════════════════
// RESPONSE HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// JSONResponse represents a standard JSON response.
type JSONResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *APIError   `json:"error,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeJSONError writes an error JSON response.
func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	response := JSONResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
	}

	_ = json.NewEncoder(w).Encode(response)
}

// writeDomainError maps a domain error onto the HTTP surface. The mapping is
// by error kind, never by message text.
func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	case shared.IsForbidden(err):
		writeJSONError(w, http.StatusForbidden, "forbidden", err.Error())
	case shared.IsConflict(err):
		writeJSONError(w, http.StatusConflict, "conflict", err.Error())
	case shared.IsInvalidState(err):
		writeJSONError(w, http.StatusConflict, "invalid_transition", err.Error())
	case shared.IsPreconditionFailed(err):
		writeJSONError(w, http.StatusPreconditionFailed, "precondition_failed", err.Error())
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "validation_error", err.Error())
	default:
		s.logger.Error("unhandled error",
			logger.Err(err),
			logger.String("path", r.URL.Path),
			logger.String("request_id", getRequestID(r.Context())),
		)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "An unexpected error occurred")
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPER TYPES AND FUNCTIONS
// ══════════════════════════════════════════════════════════════════════════════

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// getClientIP extracts the client IP from the request.
func getClientIP(r *http.Request) string {
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// getRequestID extracts the request ID from context.
func getRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// generateRequestID generates a unique request ID.
func generateRequestID() string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), time.Now().Nanosecond()%1000)
}

// getQueryParam extracts a query parameter with a default value.
func getQueryParam(r *http.Request, key, defaultValue string) string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getQueryParamInt extracts an integer query parameter with a default value.
func getQueryParamInt(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	var result int
	if _, err := fmt.Sscanf(value, "%d", &result); err != nil {
		return defaultValue
	}
	return result
}
