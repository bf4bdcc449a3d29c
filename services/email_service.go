package services

import (
	"crypto/tls"
	"fmt"
	"net/smtp"

	"github.com/chimucheck/backend/config"
)

// EmailService sends transactional mail (welcome, approval notices). It is a
// best-effort collaborator: callers log failures instead of failing the
// request.
type EmailService struct {
	cfg *config.Config
}

func NewEmailService(cfg *config.Config) *EmailService {
	return &EmailService{cfg: cfg}
}

func (s *EmailService) SendEmail(to []string, subject string, body string) error {
	if s.cfg.SMTPHost == "" {
		return fmt.Errorf("SMTP is not configured")
	}

	auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPass, s.cfg.SMTPHost)

	msg := []byte("To: " + to[0] + "\r\n" +
		"From: " + s.cfg.SMTPFrom + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"MIME-version: 1.0;\nContent-Type: text/html; charset=\"UTF-8\";\r\n" +
		"\r\n" +
		body + "\r\n")

	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)

	tlsconfig := &tls.Config{
		ServerName: s.cfg.SMTPHost,
	}

	var client *smtp.Client
	if s.cfg.SMTPPort == 465 {
		conn, err := tls.Dial("tcp", addr, tlsconfig)
		if err != nil {
			return fmt.Errorf("TLS connection failed: %w", err)
		}
		defer conn.Close()
		client, err = smtp.NewClient(conn, s.cfg.SMTPHost)
		if err != nil {
			return fmt.Errorf("failed to create SMTP client: %w", err)
		}
	} else {
		c, err := smtp.Dial(addr)
		if err != nil {
			return fmt.Errorf("SMTP connection failed: %w", err)
		}
		client = c
		if err = client.StartTLS(tlsconfig); err != nil {
			client.Close()
			return fmt.Errorf("STARTTLS command failed: %w", err)
		}
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("SMTP auth failed: %w", err)
	}
	if err := client.Mail(s.cfg.SMTPFrom); err != nil {
		return fmt.Errorf("SMTP MAIL command failed: %w", err)
	}
	for _, recipient := range to {
		if err := client.Rcpt(recipient); err != nil {
			return fmt.Errorf("SMTP RCPT command failed for %s: %w", recipient, err)
		}
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("SMTP DATA command failed: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("failed to write message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("failed to close message writer: %w", err)
	}

	return client.Quit()
}

func (s *EmailService) SendWelcomeEmail(to string, alias string) error {
	subject := "Bienvenido a ChimuCheck"
	body := fmt.Sprintf(
		"<h2>¡Hola %s!</h2><p>Tu cuenta fue creada y está pendiente de aprobación. Te avisaremos cuando un administrador la revise.</p>",
		alias,
	)
	return s.SendEmail([]string{to}, subject, body)
}

func (s *EmailService) SendApprovalEmail(to string, alias string, approved bool) error {
	if approved {
		return s.SendEmail([]string{to},
			"Cuenta aprobada",
			fmt.Sprintf("<h2>¡Hola %s!</h2><p>Tu cuenta fue aprobada. Ya puedes inscribirte en torneos.</p>", alias),
		)
	}
	return s.SendEmail([]string{to},
		"Cuenta rechazada",
		fmt.Sprintf("<h2>Hola %s</h2><p>Tu solicitud de registro fue rechazada. Escríbenos si crees que es un error.</p>", alias),
	)
}
