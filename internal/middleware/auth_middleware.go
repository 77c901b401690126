package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/authd/authd/internal/service"
	"github.com/sirupsen/logrus"
)

type contextKey string

const principalKey contextKey = "principal"

type AuthMiddleware struct {
	tokens   *service.TokenService
	denylist service.TokenDenylist
	logger   *logrus.Logger
}

func NewAuthMiddleware(tokens *service.TokenService, denylist service.TokenDenylist, logger *logrus.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokens:   tokens,
		denylist: denylist,
		logger:   logger,
	}
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			m.respondUnauthorized(w, "Missing authorization header")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			m.respondUnauthorized(w, "Invalid authorization header format")
			return
		}

		principal, err := m.tokens.Validate(parts[1], true)
		if err != nil {
			m.logger.WithError(err).Debug("Token verification failed")
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}

		revoked, err := m.denylist.IsRevoked(r.Context(), principal.JTI)
		if err != nil {
			m.logger.WithError(err).Error("Denylist lookup failed")
			m.respondUnauthorized(w, "Invalid or expired token")
			return
		}
		if revoked {
			m.respondUnauthorized(w, "Token has been revoked")
			return
		}

		ctx := context.WithValue(r.Context(), principalKey, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// PrincipalFromContext returns the authenticated principal set by
// RequireAuth, or nil on unauthenticated requests.
func PrincipalFromContext(ctx context.Context) *service.Principal {
	principal, _ := ctx.Value(principalKey).(*service.Principal)
	return principal
}

func (m *AuthMiddleware) respondUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"` + message + `"}}`))
}
