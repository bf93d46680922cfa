// Package mail sends outbound notification emails. Delivery is behind the
// Sender interface so handlers and tests can swap in a fake; the SMTP
// implementation opens one connection per send and closes it on every path.
package mail

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/nejcz/zaloga/internal/config"
)

// Sender delivers a plain-text message to one recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewSender returns an SMTP sender, or a log-only sender when the
// configuration is incomplete.
func NewSender(cfg config.MailConfig) Sender {
	if cfg.Server == "" || cfg.Username == "" {
		slog.Warn("mail delivery disabled, messages will only be logged")
		return &LogSender{}
	}
	return &SMTPSender{cfg: cfg}
}

// SMTPSender delivers messages over SMTP with optional STARTTLS.
type SMTPSender struct {
	cfg config.MailConfig
}

// Send connects, authenticates, and delivers one message.
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	sender := s.cfg.Sender
	if sender == "" {
		sender = s.cfg.Username
	}

	addr := net.JoinHostPort(s.cfg.Server, strconv.Itoa(s.cfg.Port))
	dialer := net.Dialer{Timeout: 10 * time.Second}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}

	client, err := smtp.NewClient(conn, s.cfg.Server)
	if err != nil {
		conn.Close()
		return fmt.Errorf("starting smtp session: %w", err)
	}
	defer client.Close()

	if s.cfg.UseTLS {
		if err := client.StartTLS(nil); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Server)
	if err := client.Auth(auth); err != nil {
		return fmt.Errorf("authenticating: %w", err)
	}

	if err := client.Mail(sender); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening message body: %w", err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n", sender, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		w.Close()
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing message: %w", err)
	}

	if err := client.Quit(); err != nil {
		return fmt.Errorf("closing smtp session: %w", err)
	}

	slog.Info("email sent", "to", to, "subject", subject)
	return nil
}

// LogSender logs messages instead of delivering them. Used when SMTP is not
// configured.
type LogSender struct{}

// Send logs the message and reports success.
func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	slog.Info("email suppressed (mail disabled)", "to", to, "subject", subject, "bytes", len(body))
	return nil
}
