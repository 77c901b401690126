package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TokenKind selects the grant a token is minted for. Session tokens are
// short-lived API credentials; delegated tokens back the authorization-code
// grant and live for a month.
type TokenKind int

const (
	TokenKindSession TokenKind = iota
	TokenKindDelegated
)

type TokenService struct {
	secretKey       []byte
	issuer          string
	audience        string
	sessionExpiry   time.Duration
	delegatedExpiry time.Duration
	logger          *logrus.Logger
}

func NewTokenService(cfg *config.JWTConfig, logger *logrus.Logger) (*TokenService, error) {
	secretKey := []byte(cfg.SecretKey)
	if len(secretKey) < 32 {
		return nil, fmt.Errorf("secret key must be at least 32 bytes")
	}

	return &TokenService{
		secretKey:       secretKey,
		issuer:          cfg.Issuer,
		audience:        cfg.Audience,
		sessionExpiry:   cfg.SessionExpiry,
		delegatedExpiry: cfg.DelegatedExpiry,
		logger:          logger,
	}, nil
}

type Claims struct {
	Name string `json:"name"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Principal is the identity extracted from a validated access token.
type Principal struct {
	UserID    string
	Name      string
	Role      models.Role
	JTI       string
	ExpiresAt time.Time
}

// Generate mints a signed access token and returns it with its jti. The jti
// is what binds the token to the refresh token persisted alongside it.
func (s *TokenService) Generate(userID, name string, role models.Role, kind TokenKind) (string, string, error) {
	now := time.Now()
	jti := uuid.New().String()

	expiry := s.sessionExpiry
	if kind == TokenKindDelegated {
		expiry = s.delegatedExpiry
	}

	claims := &Claims{
		Name: name,
		Role: string(role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        jti,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secretKey)
	if err != nil {
		s.logger.WithError(err).Error("Failed to sign access token")
		return "", "", fmt.Errorf("%w: failed to sign access token: %v", autherr.ErrInternal, err)
	}

	return signed, jti, nil
}

// Validate verifies the signature and, when checkExpiry is set, the expiry
// claim. Rotation passes checkExpiry=false: the old access token is trusted
// for identity but not for liveness. Any algorithm header other than HS256
// is rejected outright.
func (s *TokenService) Validate(tokenString string, checkExpiry bool) (*Principal, error) {
	opts := []jwt.ParserOption{jwt.WithIssuedAt()}
	if !checkExpiry {
		opts = append(opts, jwt.WithoutClaimsValidation())
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok || token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("%w: got %v", autherr.ErrAlgorithmMismatch, token.Header["alg"])
		}
		return s.secretKey, nil
	}, opts...)

	if err != nil {
		return nil, mapTokenError(err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, autherr.ErrTokenMalformed
	}

	principal := &Principal{
		UserID: claims.Subject,
		Name:   claims.Name,
		Role:   models.Role(claims.Role),
		JTI:    claims.ID,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}

	return principal, nil
}

// ExpirySeconds reports the configured lifetime for a token kind, used for
// the expires_in field of token responses.
func (s *TokenService) ExpirySeconds(kind TokenKind) int64 {
	if kind == TokenKindDelegated {
		return int64(s.delegatedExpiry.Seconds())
	}
	return int64(s.sessionExpiry.Seconds())
}

func mapTokenError(err error) error {
	switch {
	case errors.Is(err, autherr.ErrAlgorithmMismatch):
		return autherr.ErrAlgorithmMismatch
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return autherr.ErrSignatureInvalid
	case errors.Is(err, jwt.ErrTokenExpired):
		return autherr.ErrTokenExpired
	default:
		return autherr.ErrTokenMalformed
	}
}
