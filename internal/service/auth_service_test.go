package service

import (
	"context"
	"crypto/rand"
	"testing"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type authFixture struct {
	svc      *AuthService
	users    *fakeUserStore
	otp      *fakeOTPStore
	refresh  *fakeRefreshStore
	denylist *fakeDenylist
	tokens   *TokenService
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newFakeUserStore()
	otpStore := newFakeOTPStore()
	refreshStore := newFakeRefreshStore()
	denylist := newFakeDenylist()

	cfg := testJWTConfig()
	tokens := newTestTokenService(t, cfg)
	refresh := NewRefreshTokenService(refreshStore, users, tokens, cfg, rand.Reader, testLogger())
	otp := NewOTPService(otpStore, &fakeSender{}, testOTPConfig(), rand.Reader, testLogger())
	creds := NewLocalCredentialVerifier(users, testLogger())

	return &authFixture{
		svc:      NewAuthService(users, creds, otp, refresh, denylist, testLogger()),
		users:    users,
		otp:      otpStore,
		refresh:  refreshStore,
		denylist: denylist,
		tokens:   tokens,
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, user.ID)
	require.Equal(t, models.RoleUser, user.Role)
	require.NotEqual(t, "password123", user.PasswordHash)

	pair, err := f.svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	// The minted access token's jti is recorded in the refresh token row.
	principal, err := f.tokens.Validate(pair.AccessToken, true)
	require.NoError(t, err)
	stored, err := f.refresh.GetByToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, principal.JTI, stored.JTI)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = f.svc.Register(ctx, "Other Alice", "alice@example.com", "different-pass")
	require.ErrorIs(t, err, autherr.ErrUserExists)
}

func TestLoginWrongPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	_, err = f.svc.Login(ctx, "alice@example.com", "nope")
	require.ErrorIs(t, err, autherr.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "stranger@example.com", "password123")
	require.ErrorIs(t, err, autherr.ErrInvalidCredentials)
}

func TestOtpLoginMintsPair(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	now := time.Now()
	otp := &models.OtpCode{
		ID:        uuid.New().String(),
		Email:     "alice@example.com",
		Code:      "135791",
		CreatedAt: now,
		ExpiresAt: now.Add(5 * time.Minute),
	}
	require.NoError(t, f.otp.Store(ctx, otp))

	pair, err := f.svc.OtpLogin(ctx, "alice@example.com", "135791")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)

	_, err = f.svc.OtpLogin(ctx, "alice@example.com", "135791")
	require.ErrorIs(t, err, autherr.ErrOtpInvalidOrExpired)
}

func TestLogoutRevokesTokens(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.svc.Register(ctx, "Alice", "alice@example.com", "password123")
	require.NoError(t, err)

	pair, err := f.svc.Login(ctx, "alice@example.com", "password123")
	require.NoError(t, err)

	principal, err := f.tokens.Validate(pair.AccessToken, true)
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, principal, pair.RefreshToken))

	revoked, err := f.denylist.IsRevoked(ctx, principal.JTI)
	require.NoError(t, err)
	require.True(t, revoked)

	stored, err := f.refresh.GetByToken(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, models.RefreshTokenInvalidated, stored.Status)

	// Logging out twice is harmless.
	require.NoError(t, f.svc.Logout(ctx, principal, pair.RefreshToken))
}
