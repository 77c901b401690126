package service

import (
	"context"
	"errors"

	"github.com/authd/authd/internal/autherr"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier is the external identity-verification capability. The
// auth core never stores or compares raw passwords itself; it only consumes
// this contract.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (string, error)
}

// LocalCredentialVerifier implements CredentialVerifier against the local
// user store with bcrypt hashes. Unknown users and wrong passwords report
// the same error so no account existence leaks.
type LocalCredentialVerifier struct {
	users  UserStore
	logger *logrus.Logger
}

func NewLocalCredentialVerifier(users UserStore, logger *logrus.Logger) *LocalCredentialVerifier {
	return &LocalCredentialVerifier{
		users:  users,
		logger: logger,
	}
}

func (v *LocalCredentialVerifier) Verify(ctx context.Context, email, password string) (string, error) {
	user, err := v.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, autherr.ErrUserNotFound) {
			return "", autherr.ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", autherr.ErrInvalidCredentials
	}

	return user.ID, nil
}
