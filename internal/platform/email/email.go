package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"hrops/internal/platform/config"
)

// Mailer delivers a single message. Implementations must be safe for
// concurrent use; delivery happens on queue workers, never on the request
// path.
type Mailer interface {
	Send(ctx context.Context, from, to, subject, body string) error
}

type noopMailer struct{}

func (noopMailer) Send(ctx context.Context, from, to, subject, body string) error {
	return nil
}

type smtpMailer struct {
	cfg config.Config
}

func New(cfg config.Config) Mailer {
	if !cfg.EmailEnabled || cfg.SMTPHost == "" {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg}
}

func (s *smtpMailer) Send(ctx context.Context, from, to, subject, body string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", s.cfg.SMTPHost, s.cfg.SMTPPort)
	msg := buildMessage(from, to, subject, body)

	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.SMTPHost)
	if err != nil {
		return err
	}
	defer client.Close()

	if s.cfg.SMTPUseTLS {
		tlsConfig := &tls.Config{ServerName: s.cfg.SMTPHost}
		if err := client.StartTLS(tlsConfig); err != nil {
			return err
		}
	}

	if s.cfg.SMTPUser != "" {
		auth := smtp.PlainAuth("", s.cfg.SMTPUser, s.cfg.SMTPPassword, s.cfg.SMTPHost)
		if err := client.Auth(auth); err != nil {
			return err
		}
	}

	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildMessage(from, to, subject, body string) []byte {
	headers := []string{
		fmt.Sprintf("From: %s", from),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=\"UTF-8\"",
		"",
	}
	return []byte(strings.Join(headers, "\r\n") + "\r\n" + body)
}

// Templates kept deliberately plain; the client renders nothing fancier.

func VerificationBody(code string) (string, string) {
	return "Verify your email", fmt.Sprintf("<p>Your verification code is <b>%s</b>. It expires in 15 minutes.</p>", code)
}

func WelcomeBody(name string) (string, string) {
	return "Welcome aboard", fmt.Sprintf("<p>Hi %s, your email has been verified and your account is ready.</p>", name)
}

func PasswordResetBody(link string) (string, string) {
	return "Reset your password", fmt.Sprintf("<p>Click <a href=%q>here</a> to reset your password. The link expires in 1 hour.</p>", link)
}

func PasswordResetSuccessBody() (string, string) {
	return "Password changed", "<p>Your password was changed successfully. If this wasn't you, contact support immediately.</p>"
}

func InvitationBody(link string) (string, string) {
	return "You're invited", fmt.Sprintf("<p>You have been invited to join an organization. Accept the invitation <a href=%q>here</a>. The invitation expires in 7 days.</p>", link)
}
