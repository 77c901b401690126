package service

import (
	"context"
	"io"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type RefreshTokenService struct {
	store         RefreshTokenStore
	users         UserStore
	tokens        *TokenService
	refreshExpiry time.Duration
	entropy       io.Reader
	logger        *logrus.Logger
}

func NewRefreshTokenService(
	store RefreshTokenStore,
	users UserStore,
	tokens *TokenService,
	cfg *config.JWTConfig,
	entropy io.Reader,
	logger *logrus.Logger,
) *RefreshTokenService {
	return &RefreshTokenService{
		store:         store,
		users:         users,
		tokens:        tokens,
		refreshExpiry: cfg.RefreshExpiry,
		entropy:       entropy,
		logger:        logger,
	}
}

// Create persists a fresh active refresh token bound to the given access
// token jti.
func (s *RefreshTokenService) Create(ctx context.Context, jti, userID string) (*models.RefreshToken, error) {
	secret, err := opaqueSecret(s.entropy)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	token := &models.RefreshToken{
		ID:        uuid.New().String(),
		Token:     secret,
		JTI:       jti,
		UserID:    userID,
		Status:    models.RefreshTokenActive,
		CreatedAt: now,
		ExpiresAt: now.Add(s.refreshExpiry),
	}

	if err := s.store.Store(ctx, token); err != nil {
		return nil, err
	}

	return token, nil
}

// Rotate exchanges a used-up access token plus its paired refresh token for
// a fresh pair. The presented access token may be expired; only its
// signature and jti are trusted. The mark-used step is a conditional write,
// so a stolen refresh token buys at most one rotation.
func (s *RefreshTokenService) Rotate(ctx context.Context, accessToken, refreshToken string) (*models.TokenPair, error) {
	principal, err := s.tokens.Validate(accessToken, false)
	if err != nil {
		return nil, err
	}

	stored, err := s.store.GetByToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	switch {
	case stored.IsExpired(now):
		return nil, autherr.ErrTokenExpired
	case stored.Status == models.RefreshTokenInvalidated:
		return nil, autherr.ErrTokenInvalidated
	case stored.Status == models.RefreshTokenUsed:
		return nil, autherr.ErrTokenAlreadyUsed
	case stored.JTI != principal.JTI:
		return nil, autherr.ErrJTIMismatch
	}

	if err := s.store.MarkUsed(ctx, refreshToken); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, err
	}

	return s.MintPair(ctx, user, TokenKindSession)
}

// Invalidate revokes an active refresh token owned by the given user.
// Used and invalidated tokens stay terminal.
func (s *RefreshTokenService) Invalidate(ctx context.Context, userID, refreshToken string) error {
	stored, err := s.store.GetByToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	if stored.UserID != userID {
		return autherr.ErrTokenNotFound
	}

	return s.store.MarkInvalidated(ctx, refreshToken)
}

// MintPair issues an access token of the given kind together with a new
// refresh token recording its jti.
func (s *RefreshTokenService) MintPair(ctx context.Context, user *models.User, kind TokenKind) (*models.TokenPair, error) {
	name := user.Name
	if name == "" {
		name = user.Email
	}

	accessToken, jti, err := s.tokens.Generate(user.ID, name, user.Role, kind)
	if err != nil {
		return nil, err
	}

	refresh, err := s.Create(ctx, jti, user.ID)
	if err != nil {
		return nil, err
	}

	return &models.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refresh.Token,
		TokenType:    "Bearer",
		ExpiresIn:    s.tokens.ExpirySeconds(kind),
	}, nil
}
