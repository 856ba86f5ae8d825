package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/quicksign/quicksign/internal/config"
)

// SMTPMailer delivers notifications over plain SMTP with STARTTLS auth.
// The pack carries no dedicated mail library, so this stays a thin stdlib
// wrapper behind the Mailer interface.
type SMTPMailer struct {
	cfg config.SMTPConfig
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg}
}

// Configured reports whether the config carries enough to attempt delivery.
func (m *SMTPMailer) Configured() bool {
	return m.cfg.Host != "" && m.cfg.User != ""
}

func (m *SMTPMailer) Send(ctx context.Context, n *Notification) error {
	if !m.Configured() {
		return fmt.Errorf("smtp not configured")
	}
	body, err := renderBody(n)
	if err != nil {
		return fmt.Errorf("render %s email: %w", n.Kind, err)
	}

	var msg strings.Builder
	msg.WriteString("From: " + m.cfg.From + "\r\n")
	msg.WriteString("To: " + n.Recipient + "\r\n")
	msg.WriteString("Subject: " + n.Subject + "\r\n")
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := m.cfg.Host + ":" + m.cfg.Port
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Password, m.cfg.Host)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{n.Recipient}, []byte(msg.String())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", n.Recipient, err)
	}
	return nil
}
