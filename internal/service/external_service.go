package service

import (
	"context"
	"crypto/subtle"
	"io"
	"strings"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ExternalService brokers the delegated third-party login flow: a short-lived
// single-use authorization code issued to a client's redirect target, later
// exchanged server-to-server (with the client secret) for a real token pair.
type ExternalService struct {
	codes      AuthCodeStore
	clients    ClientStore
	users      UserStore
	creds      CredentialVerifier
	otp        *OTPService
	refresh    *RefreshTokenService
	codeExpiry time.Duration
	entropy    io.Reader
	logger     *logrus.Logger
}

func NewExternalService(
	codes AuthCodeStore,
	clients ClientStore,
	users UserStore,
	creds CredentialVerifier,
	otp *OTPService,
	refresh *RefreshTokenService,
	cfg *config.AuthCodeConfig,
	entropy io.Reader,
	logger *logrus.Logger,
) *ExternalService {
	return &ExternalService{
		codes:      codes,
		clients:    clients,
		users:      users,
		creds:      creds,
		otp:        otp,
		refresh:    refresh,
		codeExpiry: cfg.Expiry,
		entropy:    entropy,
		logger:     logger,
	}
}

// HandleLogin authenticates a user with email/password on behalf of a client
// and returns the redirect URL carrying a fresh authorization code.
func (s *ExternalService) HandleLogin(ctx context.Context, email, password, clientID, redirectURI string) (string, error) {
	userID, err := s.creds.Verify(ctx, email, password)
	if err != nil {
		return "", err
	}

	return s.IssueCode(ctx, userID, clientID, redirectURI)
}

// HandleOtpLogin authenticates a user with a previously delivered OTP code
// on behalf of a client and returns the redirect URL with the code.
func (s *ExternalService) HandleOtpLogin(ctx context.Context, email, otpCode, clientID, redirectURI string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}

	if _, err := s.otp.Verify(ctx, email, otpCode); err != nil {
		return "", err
	}

	return s.IssueCode(ctx, user.ID, clientID, redirectURI)
}

// IssueCode persists a single-use authorization code bound to the user,
// client, and redirect target, and returns the redirect URL with the code
// appended. The web layer performs the actual redirect.
func (s *ExternalService) IssueCode(ctx context.Context, userID, clientID, redirectURI string) (string, error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return "", autherr.ErrClientNotFound
	}

	if _, err := s.clients.GetByID(ctx, clientID); err != nil {
		return "", err
	}

	secret, err := opaqueSecret(s.entropy)
	if err != nil {
		return "", err
	}

	now := time.Now()
	code := &models.AuthorizationCode{
		ID:          uuid.New().String(),
		Code:        secret,
		UserID:      userID,
		ClientID:    clientID,
		RedirectURI: redirectURI,
		Used:        false,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.codeExpiry),
	}

	if err := s.codes.Store(ctx, code); err != nil {
		return "", err
	}

	separator := "?"
	if strings.Contains(redirectURI, "?") {
		separator = "&"
	}

	return redirectURI + separator + "code=" + code.Code, nil
}

// ExchangeCode redeems an authorization code for a delegated token pair.
// Client secret comparison is constant-time, and the code is consumed only
// after every check passes: a secret mismatch leaves it valid for a retry
// with the correct secret within its five-minute window.
func (s *ExternalService) ExchangeCode(ctx context.Context, code, clientID, clientSecret string) (*models.TokenPair, error) {
	stored, err := s.codes.GetByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	if stored.IsExpired(time.Now()) {
		return nil, autherr.ErrCodeExpired
	}

	if stored.Used {
		return nil, autherr.ErrCodeAlreadyUsed
	}

	if stored.ClientID != clientID {
		return nil, autherr.ErrClientIDMismatch
	}

	client, err := s.clients.GetByID(ctx, stored.ClientID)
	if err != nil {
		return nil, err
	}

	if subtle.ConstantTimeCompare([]byte(client.ClientSecret), []byte(clientSecret)) != 1 {
		return nil, autherr.ErrClientSecretMismatch
	}

	if err := s.codes.MarkUsed(ctx, code); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	// The pair belongs to the underlying user, not the client.
	return s.refresh.MintPair(ctx, user, TokenKindDelegated)
}

// GetClient exposes the public client metadata the hosted login page needs.
func (s *ExternalService) GetClient(ctx context.Context, clientID string) (*models.Client, error) {
	if _, err := uuid.Parse(clientID); err != nil {
		return nil, autherr.ErrClientNotFound
	}

	return s.clients.GetByID(ctx, clientID)
}
