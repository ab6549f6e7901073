package notifier

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"time"

	"github.com/semmidev/offsite/internal/config"
	"github.com/semmidev/offsite/internal/domain"
	"github.com/sethvargo/go-retry"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mail delivers notices to the settings' notify_email over SMTP.
type Mail struct {
	cfg     config.SMTPConfig
	send    sendMailFunc
	backoff func() retry.Backoff
}

func NewMail(cfg config.SMTPConfig) *Mail {
	return &Mail{
		cfg:  cfg,
		send: smtp.SendMail,
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))
		},
	}
}

func (m *Mail) Notify(ctx context.Context, n domain.Notice) error {
	if n.Recipient == "" {
		return nil
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	msg := m.message(n)

	err := retry.Do(ctx, m.backoff(), func(ctx context.Context) error {
		if err := m.send(addr, auth, m.cfg.From, []string{n.Recipient}, msg); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("send mail to %s: %w", n.Recipient, err)
	}
	return nil
}

func (m *Mail) message(n domain.Notice) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&buf, "To: %s\r\n", n.Recipient)
	fmt.Fprintf(&buf, "Subject: %s\r\n", Subject(n))
	buf.WriteString("MIME-Version: 1.0\r\n")
	buf.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
	buf.WriteString(Body(n))
	return buf.Bytes()
}
