// Package mail delivers notification emails over SMTP.
package mail

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shop/backend/internal/infrastructure/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// ErrNoRecipient is returned for messages without an address
var ErrNoRecipient = errors.New("mail: empty recipient")

// Message is a plain-text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Sender delivers messages
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// dialer is the part of gomail.Dialer used by SMTPSender
type dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender sends mail through an SMTP relay
type SMTPSender struct {
	from   string
	dialer dialer
	logger *zap.Logger
}

// NewSMTPSender creates a sender for the configured relay
func NewSMTPSender(cfg config.MailConfig, logger *zap.Logger) *SMTPSender {
	return &SMTPSender{
		from:   cfg.From,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		logger: logger,
	}
}

// Send builds and sends one message. The SMTP exchange is not cancellable;
// ctx is only checked before dialing.
func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.logger.Info("email sent",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
	)
	return nil
}

// LogSender writes messages to the log instead of sending them.
// It is used when no SMTP host is configured.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender creates a log-only sender
func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, msg Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return ErrNoRecipient
	}
	s.logger.Info("email (not sent, smtp disabled)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.Body),
	)
	return nil
}

// NewSender picks the SMTP sender when a host is configured
func NewSender(cfg config.MailConfig, logger *zap.Logger) Sender {
	if cfg.Enabled() {
		return NewSMTPSender(cfg, logger)
	}
	logger.Warn("mail.host not set, emails will be logged only")
	return NewLogSender(logger)
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*LogSender)(nil)
)
