package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/fesc-practicas/practicas-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AUTHENTICATION
// The gate itself lives in the domain (internal/domain/autorizacion); this
// layer only establishes WHO is calling. A token carries the subject id and
// the rol, nothing else: permissions are recomputed on every request.
// ══════════════════════════════════════════════════════════════════════════════

// AuthConfig holds JWT authentication configuration.
type AuthConfig struct {
	// Secret signs and verifies tokens (HS256).
	Secret string

	// Issuer is stamped into and required from every token.
	Issuer string

	// TokenTTL is how long issued tokens stay valid.
	TokenTTL time.Duration
}

// DefaultAuthConfig returns sensible defaults. The secret must be provided.
func DefaultAuthConfig() AuthConfig {
	return AuthConfig{
		Issuer:   "practicas-hub",
		TokenTTL: 8 * time.Hour,
	}
}

// Claims is the JWT payload.
type Claims struct {
	Rol string `json:"rol"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies the hub's JWTs.
type TokenManager struct {
	config AuthConfig
}

// NewTokenManager creates a new TokenManager.
func NewTokenManager(config AuthConfig) *TokenManager {
	return &TokenManager{config: config}
}

// Issue creates a signed token for the principal.
func (m *TokenManager) Issue(p shared.Principal) (string, error) {
	now := time.Now().UTC()
	claims := Claims{
		Rol: p.Rol.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.SubjectID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.config.Secret))
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the embedded principal.
func (m *TokenManager) Verify(tokenString string) (shared.Principal, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.config.Secret), nil
	})
	if err != nil {
		return shared.Principal{}, shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized,
			"invalid or expired token")
	}
	if !claims.VerifyIssuer(m.config.Issuer, true) {
		return shared.Principal{}, shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized,
			"invalid or expired token")
	}

	rol, err := shared.ParseRol(claims.Rol)
	if err != nil {
		return shared.Principal{}, shared.NewDomainError("auth", "Verify", shared.ErrUnauthorized,
			"token carries an unknown rol")
	}

	return shared.Principal{SubjectID: claims.Subject, Rol: rol}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Request principal
// ─────────────────────────────────────────────────────────────────────────────

const contextKeyPrincipal contextKey = "principal"

// principalFrom extracts the authenticated principal from the request context.
func principalFrom(ctx context.Context) (shared.Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal).(shared.Principal)
	return p, ok
}

// withPrincipal stores the principal in the context.
func withPrincipal(ctx context.Context, p shared.Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal, p)
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && strings.EqualFold(auth[:len(prefix)], prefix) {
		return auth[len(prefix):]
	}
	return ""
}
