// Package smtp delivers rendered notification emails over SMTP. Connection
// settings live in the database and are editable at runtime, so every send
// reads the current configuration instead of caching credentials at startup.
package smtp

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/xenking/karuwa-takeaway/internal/domain/settings"
)

// ErrNotConfigured is returned when SMTP host or credentials are missing.
var ErrNotConfigured = errors.New("smtp not configured")

// Message is a single outbound email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Sender delivers one message using the given configuration.
type Sender interface {
	Send(ctx context.Context, cfg *settings.Email, msg Message) error
}

// Mailer sends mail over plain SMTP with STARTTLS, or implicit TLS on port
// 465, authenticating with the configured credentials.
type Mailer struct {
	dialTimeout time.Duration
}

// NewMailer creates a Mailer with the given connection timeout.
func NewMailer(dialTimeout time.Duration) *Mailer {
	if dialTimeout <= 0 {
		dialTimeout = 10 * time.Second
	}
	return &Mailer{dialTimeout: dialTimeout}
}

// Send delivers msg. The context bounds the dial; the SMTP conversation
// itself is bounded by a deadline on the connection.
func (m *Mailer) Send(ctx context.Context, cfg *settings.Email, msg Message) error {
	if cfg.SMTPHost == "" || cfg.SMTPUser == "" {
		return ErrNotConfigured
	}

	addr := net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort))
	dialer := net.Dialer{Timeout: m.dialTimeout}

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return errors.Wrap(err, "dial smtp")
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	// Port 465 is implicit TLS; everything else starts plain and upgrades.
	if cfg.SMTPPort == 465 {
		conn = tls.Client(conn, &tls.Config{ServerName: cfg.SMTPHost})
	}

	client, err := smtp.NewClient(conn, cfg.SMTPHost)
	if err != nil {
		_ = conn.Close()
		return errors.Wrap(err, "smtp handshake")
	}
	defer client.Close()

	if cfg.SMTPPort != 465 {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(&tls.Config{ServerName: cfg.SMTPHost}); err != nil {
				return errors.Wrap(err, "starttls")
			}
		}
	}

	auth := smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	if err := client.Auth(auth); err != nil {
		return errors.Wrap(err, "smtp auth")
	}

	if err := client.Mail(cfg.RestaurantEmail); err != nil {
		return errors.Wrap(err, "mail from")
	}
	if err := client.Rcpt(msg.To); err != nil {
		return errors.Wrap(err, "rcpt to")
	}

	w, err := client.Data()
	if err != nil {
		return errors.Wrap(err, "smtp data")
	}
	if _, err := w.Write(buildRaw(cfg, msg)); err != nil {
		_ = w.Close()
		return errors.Wrap(err, "write message")
	}
	if err := w.Close(); err != nil {
		return errors.Wrap(err, "close message")
	}

	return client.Quit()
}

func buildRaw(cfg *settings.Email, msg Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", cfg.RestaurantName, cfg.RestaurantEmail)
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + msg.Subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.HTML)
	return []byte(b.String())
}
