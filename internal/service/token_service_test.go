package service

import (
	"testing"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func testJWTConfig() *config.JWTConfig {
	return &config.JWTConfig{
		SecretKey:       "0123456789abcdef0123456789abcdef",
		Issuer:          "authd",
		Audience:        "authd-clients",
		SessionExpiry:   5 * time.Minute,
		DelegatedExpiry: 30 * 24 * time.Hour,
		RefreshExpiry:   30 * 24 * time.Hour,
	}
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestTokenService(t *testing.T, cfg *config.JWTConfig) *TokenService {
	t.Helper()
	svc, err := NewTokenService(cfg, testLogger())
	require.NoError(t, err)
	return svc
}

func TestTokenServiceRejectsShortKey(t *testing.T) {
	cfg := testJWTConfig()
	cfg.SecretKey = "too-short"

	_, err := NewTokenService(cfg, testLogger())
	require.Error(t, err)
}

func TestGenerateValidateRoundTrip(t *testing.T) {
	svc := newTestTokenService(t, testJWTConfig())

	token, jti, err := svc.Generate("user-1", "Alice", models.RoleAdmin, TokenKindSession)
	require.NoError(t, err)
	require.NotEmpty(t, jti)

	principal, err := svc.Validate(token, true)
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.UserID)
	require.Equal(t, "Alice", principal.Name)
	require.Equal(t, models.RoleAdmin, principal.Role)
	require.Equal(t, jti, principal.JTI)
	require.False(t, principal.ExpiresAt.IsZero())
}

func TestValidateRejectsMalformedToken(t *testing.T) {
	svc := newTestTokenService(t, testJWTConfig())

	_, err := svc.Validate("not-a-token", true)
	require.ErrorIs(t, err, autherr.ErrTokenMalformed)
}

func TestValidateRejectsForeignKey(t *testing.T) {
	svc := newTestTokenService(t, testJWTConfig())

	other := testJWTConfig()
	other.SecretKey = "ffffffffffffffffffffffffffffffff"
	otherSvc := newTestTokenService(t, other)

	token, _, err := otherSvc.Generate("user-1", "Alice", models.RoleUser, TokenKindSession)
	require.NoError(t, err)

	_, err = svc.Validate(token, true)
	require.ErrorIs(t, err, autherr.ErrSignatureInvalid)
}

func TestValidateRejectsWrongAlgorithm(t *testing.T) {
	cfg := testJWTConfig()
	svc := newTestTokenService(t, cfg)

	// Same key, different HMAC variant: the algorithm header check must
	// fire before any claim is trusted.
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-1",
			ID:        "some-jti",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS384, claims)
	signed, err := token.SignedString([]byte(cfg.SecretKey))
	require.NoError(t, err)

	_, err = svc.Validate(signed, true)
	require.ErrorIs(t, err, autherr.ErrAlgorithmMismatch)
}

func TestValidateExpiry(t *testing.T) {
	cfg := testJWTConfig()
	cfg.SessionExpiry = -time.Minute
	svc := newTestTokenService(t, cfg)

	token, _, err := svc.Generate("user-1", "Alice", models.RoleUser, TokenKindSession)
	require.NoError(t, err)

	_, err = svc.Validate(token, true)
	require.ErrorIs(t, err, autherr.ErrTokenExpired)

	// Rotation trusts identity but not liveness.
	principal, err := svc.Validate(token, false)
	require.NoError(t, err)
	require.Equal(t, "user-1", principal.UserID)
}

func TestExpirySecondsPerKind(t *testing.T) {
	cfg := testJWTConfig()
	svc := newTestTokenService(t, cfg)

	require.Equal(t, int64(300), svc.ExpirySeconds(TokenKindSession))
	require.Equal(t, int64(30*24*3600), svc.ExpirySeconds(TokenKindDelegated))
}
