package service

import (
	"context"
	"errors"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// AuthService ties credential verification, OTP login, and token minting
// together behind the first-party API surface.
type AuthService struct {
	users    UserStore
	creds    CredentialVerifier
	otp      *OTPService
	refresh  *RefreshTokenService
	denylist TokenDenylist
	logger   *logrus.Logger
}

func NewAuthService(
	users UserStore,
	creds CredentialVerifier,
	otp *OTPService,
	refresh *RefreshTokenService,
	denylist TokenDenylist,
	logger *logrus.Logger,
) *AuthService {
	return &AuthService{
		users:    users,
		creds:    creds,
		otp:      otp,
		refresh:  refresh,
		denylist: denylist,
		logger:   logger,
	}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         name,
		Role:         models.RoleUser,
		PasswordHash: string(hash),
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*models.TokenPair, error) {
	userID, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return s.refresh.MintPair(ctx, user, TokenKindSession)
}

func (s *AuthService) OtpLogin(ctx context.Context, email, code string) (*models.TokenPair, error) {
	if _, err := s.otp.Verify(ctx, email, code); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return s.refresh.MintPair(ctx, user, TokenKindSession)
}

// Logout revokes the presented refresh token and deny-lists the current
// access token jti until its natural expiry. Already-terminal refresh
// tokens are treated as logged out.
func (s *AuthService) Logout(ctx context.Context, principal *Principal, refreshToken string) error {
	if refreshToken != "" {
		err := s.refresh.Invalidate(ctx, principal.UserID, refreshToken)
		if err != nil && !errors.Is(err, autherr.ErrTokenInvalidated) &&
			!errors.Is(err, autherr.ErrTokenAlreadyUsed) && !errors.Is(err, autherr.ErrTokenNotFound) {
			return err
		}
	}

	expiresAt := principal.ExpiresAt
	if expiresAt.IsZero() {
		expiresAt = time.Now().Add(time.Hour)
	}

	if err := s.denylist.Revoke(ctx, principal.JTI, expiresAt); err != nil {
		s.logger.WithError(err).Error("Failed to deny-list access token jti")
		return err
	}

	return nil
}
