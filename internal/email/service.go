package email

import (
	"context"
	"crypto/tls"
	"fmt"

	"gopkg.in/gomail.v2"

	"github.com/jwalitptl/clinic-admin/pkg/logger"
)

type Service interface {
	SendWelcome(ctx context.Context, to, name, roleLabel string) error
	SendCustom(ctx context.Context, to, subject, content string) error
}

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type smtpService struct {
	from string
	send func(m ...*gomail.Message) error
}

// NewSMTPService sends mail through an SMTP relay.
func NewSMTPService(cfg Config) Service {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	dialer.TLSConfig = &tls.Config{
		ServerName: cfg.Host,
		MinVersion: tls.VersionTLS12,
	}
	return &smtpService{from: cfg.From, send: dialer.DialAndSend}
}

func (s *smtpService) SendWelcome(ctx context.Context, to, name, roleLabel string) error {
	body := fmt.Sprintf(welcomeTemplate, name, roleLabel)
	return s.deliver(ctx, to, "Bienvenido a la clínica", body)
}

func (s *smtpService) SendCustom(ctx context.Context, to, subject, content string) error {
	return s.deliver(ctx, to, subject, content)
}

func (s *smtpService) deliver(ctx context.Context, to, subject, html string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := gomail.NewMessage(
		gomail.SetCharset("UTF-8"),
		gomail.SetEncoding(gomail.Base64),
	)
	msg.SetHeader("From", s.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/html", html)

	if err := s.send(msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

const welcomeTemplate = `<p>Hola %s,</p>
<p>Se ha creado tu cuenta con el rol <strong>%s</strong>.</p>
<p>Al iniciar sesión por primera vez se te pedirá completar tu perfil.</p>`

type logService struct {
	logger *logger.Logger
}

// NewLogService only logs outgoing mail. Used when SMTP is disabled.
func NewLogService(log *logger.Logger) Service {
	if log == nil {
		log = logger.Nop()
	}
	return &logService{logger: log.With("email")}
}

func (s *logService) SendWelcome(_ context.Context, to, name, roleLabel string) error {
	s.logger.Info("welcome email suppressed", "to", to, "name", name, "role", roleLabel)
	return nil
}

func (s *logService) SendCustom(_ context.Context, to, subject, _ string) error {
	s.logger.Info("email suppressed", "to", to, "subject", subject)
	return nil
}
