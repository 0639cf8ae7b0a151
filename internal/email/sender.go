package email

import (
	"context"
	"fmt"
	"log"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/bmcgrane302/properview/internal/config"
)

// KindHeader names the header that tags a message with the notification it carries.
const KindHeader = "X-Properview-Kind"

// Sender defines the interface for sending emails.
// rawMessage is the complete RFC 5322 message, headers included.
type Sender interface {
	Send(ctx context.Context, to []string, subject string, rawMessage []byte) error
}

// Message is a plain-text email ready to be rendered.
type Message struct {
	From    string
	To      []string
	Subject string
	Kind    string
	Body    string
	Date    time.Time
}

// headerValue folds CR and LF to spaces so a value cannot start a new header.
func headerValue(v string) string {
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(v)
}

// Bytes renders the message with CRLF line endings. Header values are single-line and
// a non-ASCII subject is Q-encoded.
func (m Message) Bytes() []byte {
	date := m.Date
	if date.IsZero() {
		date = time.Now()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "To: %s\r\n", headerValue(strings.Join(m.To, ", ")))
	fmt.Fprintf(&sb, "From: %s\r\n", headerValue(m.From))
	fmt.Fprintf(&sb, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", headerValue(m.Subject)))
	fmt.Fprintf(&sb, "Date: %s\r\n", date.Format(time.RFC1123Z))
	if m.Kind != "" {
		fmt.Fprintf(&sb, "%s: %s\r\n", KindHeader, headerValue(m.Kind))
	}
	sb.WriteString("MIME-Version: 1.0\r\n")
	sb.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	sb.WriteString("\r\n")
	sb.WriteString(strings.ReplaceAll(strings.ReplaceAll(m.Body, "\r\n", "\n"), "\n", "\r\n"))
	if !strings.HasSuffix(m.Body, "\n") {
		sb.WriteString("\r\n")
	}
	return []byte(sb.String())
}

// SMTPSender delivers mail through an SMTP relay.
type SMTPSender struct {
	from string
	auth smtp.Auth
	addr string
}

// NewSMTPSender returns an SMTP sender, or a LoggingSender when no SMTP host is configured.
func NewSMTPSender(cfg *config.Config) Sender {
	if cfg.SmtpHost == "" {
		log.Println("SMTP host not configured, using logging email sender.")
		return &LoggingSender{}
	}

	var auth smtp.Auth
	if cfg.SmtpUsername != "" {
		auth = smtp.PlainAuth("", cfg.SmtpUsername, cfg.SmtpPassword, cfg.SmtpHost)
	}
	return &SMTPSender{
		from: cfg.SmtpFromAddress,
		auth: auth,
		addr: fmt.Sprintf("%s:%d", cfg.SmtpHost, cfg.SmtpPort),
	}
}

// Send sends an email using SMTP.
func (s *SMTPSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	if err := smtp.SendMail(s.addr, s.auth, s.from, to, rawMessage); err != nil {
		return fmt.Errorf("smtp error sending to %v: %w", to, err)
	}
	log.Printf("Email sent via SMTP to %v (Subject: %s)", to, subject)
	return nil
}

// LoggingSender writes messages to the process log instead of sending them.
type LoggingSender struct{}

// Send logs the email.
func (s *LoggingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	log.Printf("--- Email (logged, not sent) to %v: %s ---\n%s--- End Email ---", to, subject, rawMessage)
	return nil
}
