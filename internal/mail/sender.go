package mail

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/authd/authd/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender delivers a notification to a recipient. Implemented over SMTP in
// production and faked in tests; the auth core only reacts to success or
// failure.
type Sender interface {
	Send(to, subject, htmlBody string) error
}

type SMTPSender struct {
	cfg    *config.MailConfig
	logger *logrus.Logger
}

func NewSMTPSender(cfg *config.MailConfig, logger *logrus.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		logger: logger,
	}
}

func (s *SMTPSender) Send(to, subject, htmlBody string) error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	tlsConfig := &tls.Config{ServerName: s.cfg.Host}
	if err = client.StartTLS(tlsConfig); err != nil {
		return fmt.Errorf("failed to start TLS: %w", err)
	}

	if err = client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}

	if err = client.Mail(s.cfg.SenderEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(to); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to open message body: %w", err)
	}

	msg := "From: " + s.cfg.SenderName + " <" + s.cfg.SenderEmail + ">\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + htmlBody

	if _, err = w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close message body: %w", err)
	}

	if err = client.Quit(); err != nil {
		s.logger.WithError(err).Debug("SMTP quit failed after successful send")
	}

	return nil
}
