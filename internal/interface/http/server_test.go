package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ─────────────────────────────────────────────────────────────────────────────
// Fakes
// ─────────────────────────────────────────────────────────────────────────────

type fakeVerifier struct {
	practicanteID string
	err           error
}

func (f *fakeVerifier) VerificarCredenciales(ctx context.Context, email, password string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.practicanteID, nil
}

type fakeLimiter struct {
	allow bool
	err   error
}

func (f *fakeLimiter) Allow(ctx context.Context, identifier, action string) (bool, error) {
	return f.allow, f.err
}

type fakeHealth struct {
	healthy bool
}

func (f *fakeHealth) Check(ctx context.Context) HealthStatus {
	return HealthStatus{Healthy: f.healthy, CheckedAt: time.Now()}
}

func newTestServer(t *testing.T, deps Dependencies) *Server {
	t.Helper()
	if deps.Tokens == nil {
		deps.Tokens = NewTokenManager(AuthConfig{Secret: "test-secret", Issuer: "practicas-hub", TokenTTL: time.Hour})
	}
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return NewServer(cfg, deps)
}

func do(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.httpServer.Handler.ServeHTTP(rec, req)
	return rec
}

// ─────────────────────────────────────────────────────────────────────────────
// Token manager
// ─────────────────────────────────────────────────────────────────────────────

func TestTokenManager(t *testing.T) {
	manager := NewTokenManager(AuthConfig{Secret: "s3cret", Issuer: "practicas-hub", TokenTTL: time.Hour})

	t.Run("round trip", func(t *testing.T) {
		token, err := manager.Issue(shared.Principal{SubjectID: "prac-1", Rol: shared.RolEstudiante})
		require.NoError(t, err)

		p, err := manager.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "prac-1", p.SubjectID)
		assert.Equal(t, shared.RolEstudiante, p.Rol)
	})

	t.Run("tampered token is rejected", func(t *testing.T) {
		token, err := manager.Issue(shared.Principal{SubjectID: "prac-1", Rol: shared.RolEstudiante})
		require.NoError(t, err)

		_, err = manager.Verify(token + "x")
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	})

	t.Run("wrong issuer is rejected", func(t *testing.T) {
		other := NewTokenManager(AuthConfig{Secret: "s3cret", Issuer: "someone-else", TokenTTL: time.Hour})
		token, err := other.Issue(shared.Principal{SubjectID: "prac-1", Rol: shared.RolEstudiante})
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		expired := NewTokenManager(AuthConfig{Secret: "s3cret", Issuer: "practicas-hub", TokenTTL: -time.Minute})
		token, err := expired.Issue(shared.Principal{SubjectID: "prac-1", Rol: shared.RolEstudiante})
		require.NoError(t, err)

		_, err = manager.Verify(token)
		assert.True(t, errors.Is(err, shared.ErrUnauthorized))
	})
}

func TestBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, bearerToken(req))

	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", bearerToken(req))

	req.Header.Set("Authorization", "bearer lower.case.ok")
	assert.Equal(t, "lower.case.ok", bearerToken(req))

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	assert.Empty(t, bearerToken(req))
}

// ─────────────────────────────────────────────────────────────────────────────
// Middleware
// ─────────────────────────────────────────────────────────────────────────────

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	var got shared.Principal
	handler := s.authed(func(w http.ResponseWriter, r *http.Request) {
		got, _ = principalFrom(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("missing token", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer not.a.jwt")
		rec := httptest.NewRecorder()
		handler(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		token, err := s.deps.Tokens.Issue(shared.Principal{SubjectID: "prof-1", Rol: shared.RolProfesor})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		handler(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "prof-1", got.SubjectID)
		assert.Equal(t, shared.RolProfesor, got.Rol)
	})
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Run("denied request gets 429", func(t *testing.T) {
		cfg := DefaultConfig()
		s := NewServer(cfg, Dependencies{RateLimiter: &fakeLimiter{allow: false}})

		rec := do(s, httptest.NewRequest(http.MethodGet, "/live", nil))
		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	})

	t.Run("limiter failure fails open", func(t *testing.T) {
		cfg := DefaultConfig()
		s := NewServer(cfg, Dependencies{RateLimiter: &fakeLimiter{err: errors.New("redis down")}})

		rec := do(s, httptest.NewRequest(http.MethodGet, "/live", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/preinscripciones", nil)
	req.Header.Set("Origin", "https://practicas.fesc.edu.co")
	rec := do(s, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://practicas.fesc.edu.co", rec.Header().Get("Access-Control-Allow-Origin"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Handlers
// ─────────────────────────────────────────────────────────────────────────────

func TestLogin(t *testing.T) {
	t.Run("valid credentials return a verifiable token", func(t *testing.T) {
		s := newTestServer(t, Dependencies{Credentials: &fakeVerifier{practicanteID: "prac-7"}})

		body := strings.NewReader(`{"email":"ana@fesc.edu.co","password":"hunter22"}`)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body)
		rec := do(s, req)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"rol":"estudiante"`)
		assert.Contains(t, rec.Body.String(), `"subject_id":"prac-7"`)
	})

	t.Run("bad credentials return 401", func(t *testing.T) {
		s := newTestServer(t, Dependencies{Credentials: &fakeVerifier{
			err: shared.NewDomainError("cuentas", "Verificar", shared.ErrNotFound, "invalid credentials"),
		}})

		body := strings.NewReader(`{"email":"ana@fesc.edu.co","password":"wrong-pass"}`)
		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body returns 400", func(t *testing.T) {
		s := newTestServer(t, Dependencies{Credentials: &fakeVerifier{practicanteID: "prac-7"}})

		body := strings.NewReader(`{"email":"not-an-email","password":""}`)
		rec := do(s, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", body))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHealthEndpoint(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		s := newTestServer(t, Dependencies{HealthChecker: &fakeHealth{healthy: true}})
		rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unhealthy returns 503", func(t *testing.T) {
		s := newTestServer(t, Dependencies{HealthChecker: &fakeHealth{healthy: false}})
		rec := do(s, httptest.NewRequest(http.MethodGet, "/health", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestWriteDomainError(t *testing.T) {
	s := newTestServer(t, Dependencies{})

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"not found", shared.NewDomainError("practicante", "Get", shared.ErrNotFound, "no such practicante"), http.StatusNotFound},
		{"forbidden", shared.NewDomainError("proceso", "Update", shared.ErrForbidden, "staff only"), http.StatusForbidden},
		{"conflict", shared.NewDomainError("practicante", "Create", shared.ErrAlreadyExists, "duplicate documento"), http.StatusConflict},
		{"invalid transition", shared.NewDomainError("solicitud", "Decide", shared.ErrStateTransition, "already decided"), http.StatusConflict},
		{"validation", shared.NewDomainError("practicante", "Create", shared.ErrValidation, "bad email"), http.StatusBadRequest},
		{"precondition", shared.NewDomainError("recurso", "Review", shared.ErrPreconditionFailed, "nothing delivered"), http.StatusPreconditionFailed},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			s.writeDomainError(rec, httptest.NewRequest(http.MethodGet, "/x", nil), tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestGetClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.7:51234"
	assert.Equal(t, "10.0.0.7", getClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(req))
}
