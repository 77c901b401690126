package service

import (
	"context"
	"fmt"
	"io"
	"math/big"
	"time"

	"crypto/rand"

	"github.com/authd/authd/internal/autherr"
	"github.com/authd/authd/internal/config"
	"github.com/authd/authd/internal/mail"
	"github.com/authd/authd/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type OTPService struct {
	store   OTPStore
	sender  mail.Sender
	cfg     *config.OTPConfig
	entropy io.Reader
	logger  *logrus.Logger
}

func NewOTPService(store OTPStore, sender mail.Sender, cfg *config.OTPConfig, entropy io.Reader, logger *logrus.Logger) *OTPService {
	return &OTPService{
		store:   store,
		sender:  sender,
		cfg:     cfg,
		entropy: entropy,
		logger:  logger,
	}
}

// Send persists a fresh code and hands it to the notification sender. The
// store keeps a single record per email, so the write supersedes any prior
// code atomically even when sends race. The code is stored before delivery,
// so a delivery failure still leaves it occupying the one-active-OTP slot
// until it expires or a later send supersedes it.
func (s *OTPService) Send(ctx context.Context, email string) error {
	code, err := s.generateCode()
	if err != nil {
		return err
	}

	now := time.Now()
	otp := &models.OtpCode{
		ID:        uuid.New().String(),
		Email:     email,
		Code:      code,
		Used:      false,
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.Expiry),
	}

	if err := s.store.Store(ctx, otp); err != nil {
		return err
	}

	minutes := int(s.cfg.Expiry.Minutes())
	if err := s.sender.Send(email, mail.OtpSubject(), mail.OtpBody(code, minutes)); err != nil {
		s.logger.WithError(err).WithField("email", email).Error("Failed to deliver OTP email")
		return fmt.Errorf("%w: %v", autherr.ErrDeliveryFailed, err)
	}

	return nil
}

// Verify checks the supplied code against the current record for the email
// and consumes it on success. A missing record, a consumed record, a wrong
// code, and an expired code all report the same error so callers cannot
// tell which case occurred.
func (s *OTPService) Verify(ctx context.Context, email, code string) (string, error) {
	current, err := s.store.Get(ctx, email)
	if err != nil {
		return "", err
	}

	if current == nil || current.Used || current.Code != code {
		return "", autherr.ErrOtpInvalidOrExpired
	}

	if current.IsExpired(time.Now()) {
		return "", autherr.ErrOtpInvalidOrExpired
	}

	if err := s.store.MarkUsed(ctx, current); err != nil {
		return "", err
	}

	return email, nil
}

func (s *OTPService) generateCode() (string, error) {
	entropy := s.entropy
	if entropy == nil {
		entropy = rand.Reader
	}

	code := ""
	for i := 0; i < s.cfg.Length; i++ {
		num, err := rand.Int(entropy, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("%w: failed to generate OTP digit: %v", autherr.ErrInternal, err)
		}
		code += num.String()
	}
	return code, nil
}
