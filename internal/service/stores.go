package service

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"time"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/models"
)

// Storage capabilities consumed by the services. The DynamoDB repositories
// satisfy these in production; tests substitute in-memory fakes with the
// same compare-and-set semantics.

type RefreshTokenStore interface {
	Store(ctx context.Context, token *models.RefreshToken) error
	GetByToken(ctx context.Context, token string) (*models.RefreshToken, error)
	MarkUsed(ctx context.Context, token string) error
	MarkInvalidated(ctx context.Context, token string) error
}

// OTPStore holds one record per email; Store replaces the current record
// atomically and MarkUsed is conditional on the record's id.
type OTPStore interface {
	Store(ctx context.Context, otp *models.OtpCode) error
	Get(ctx context.Context, email string) (*models.OtpCode, error)
	MarkUsed(ctx context.Context, otp *models.OtpCode) error
}

type AuthCodeStore interface {
	Store(ctx context.Context, code *models.AuthorizationCode) error
	GetByCode(ctx context.Context, code string) (*models.AuthorizationCode, error)
	MarkUsed(ctx context.Context, code string) error
}

type ClientStore interface {
	GetByID(ctx context.Context, id string) (*models.Client, error)
}

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
}

// TokenDenylist records revoked access-token jtis until their natural
// expiry. Backed by Redis in production.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// opaqueSecret draws 32 bytes (256 bits) from the injected entropy source
// and hex-encodes them. Used for refresh token secrets and authorization
// codes.
func opaqueSecret(entropy io.Reader) (string, error) {
	buf := make([]byte, 32)
	if _, err := io.ReadFull(entropy, buf); err != nil {
		return "", fmt.Errorf("%w: failed to read entropy: %v", autherr.ErrInternal, err)
	}
	return hex.EncodeToString(buf), nil
}
