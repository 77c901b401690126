package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/models"
	"github.com/authd/authd/internal/service"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

type stubDenylist struct {
	revoked map[string]bool
}

func (d *stubDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	d.revoked[jti] = true
	return nil
}

func (d *stubDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	return d.revoked[jti], nil
}

func newTestMiddleware(t *testing.T, sessionExpiry time.Duration) (*AuthMiddleware, *service.TokenService, *stubDenylist) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	tokens, err := service.NewTokenService(&config.JWTConfig{
		SecretKey:       "0123456789abcdef0123456789abcdef",
		Issuer:          "authd",
		Audience:        "authd-clients",
		SessionExpiry:   sessionExpiry,
		DelegatedExpiry: time.Hour,
	}, logger)
	require.NoError(t, err)

	denylist := &stubDenylist{revoked: make(map[string]bool)}
	return NewAuthMiddleware(tokens, denylist, logger), tokens, denylist
}

func TestRequireAuthPassesPrincipal(t *testing.T) {
	mw, tokens, _ := newTestMiddleware(t, 5*time.Minute)

	token, jti, err := tokens.Generate("user-1", "Alice", models.RoleUser, service.TokenKindSession)
	require.NoError(t, err)

	var seen *service.Principal
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = PrincipalFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusOK, recorder.Code)
	require.NotNil(t, seen)
	require.Equal(t, "user-1", seen.UserID)
	require.Equal(t, jti, seen.JTI)
}

func TestRequireAuthRejectsMissingAndMalformedHeaders(t *testing.T) {
	mw, _, _ := newTestMiddleware(t, 5*time.Minute)
	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	for _, header := range []string{"", "Basic abc", "Bearer", "Bearer a b"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	mw, tokens, _ := newTestMiddleware(t, -time.Minute)

	token, _, err := tokens.Generate("user-1", "Alice", models.RoleUser, service.TokenKindSession)
	require.NoError(t, err)

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRequireAuthRejectsRevokedJTI(t *testing.T) {
	mw, tokens, denylist := newTestMiddleware(t, 5*time.Minute)

	token, jti, err := tokens.Generate("user-1", "Alice", models.RoleUser, service.TokenKindSession)
	require.NoError(t, err)
	denylist.revoked[jti] = true

	handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)

	require.Equal(t, http.StatusUnauthorized, recorder.Code)
}
