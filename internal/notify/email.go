package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-intraday/internal/logger"
	"github.com/rxtech-lab/argo-intraday/pkg/errors"
	"go.uber.org/zap"
)

// EmailConfig holds the SMTP account reports are sent from.
type EmailConfig struct {
	Sender   string `yaml:"sender" json:"sender"`
	Password string `yaml:"-" json:"-"`
	Receiver string `yaml:"receiver" json:"receiver"`
	Host     string `yaml:"host" json:"host"`
	Port     int    `yaml:"port" json:"port"`
	// ImplicitTLS dials TLS directly (port 465) instead of plain TCP.
	ImplicitTLS bool `yaml:"implicit_tls" json:"implicit_tls"`
}

// DefaultEmailConfig is a Gmail account over implicit TLS.
func DefaultEmailConfig(sender, password, receiver string) EmailConfig {
	return EmailConfig{
		Sender:      sender,
		Password:    password,
		Receiver:    receiver,
		Host:        "smtp.gmail.com",
		Port:        465,
		ImplicitTLS: true,
	}
}

func (c EmailConfig) configured() bool {
	return c.Sender != "" && c.Password != "" && c.Receiver != ""
}

// EmailNotifier sends reports by email. Trade alerts are ignored.
type EmailNotifier struct {
	config  EmailConfig
	logger  *logger.Logger
	timeout time.Duration
}

func NewEmailNotifier(config EmailConfig, l *logger.Logger) *EmailNotifier {
	if l == nil {
		l = logger.NewNopLogger()
	}

	return &EmailNotifier{config: config, logger: l, timeout: 30 * time.Second}
}

func (n *EmailNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.Kind != KindReport {
		return nil
	}

	if !n.config.configured() {
		n.logger.Warn("Email credentials not configured, skipping email", zap.String("subject", msg.Subject))

		return nil
	}

	if err := n.send(ctx, msg); err != nil {
		return errors.Wrapf(errors.ErrCodeNotifyFailed, err, "failed to send email %q", msg.Subject)
	}

	n.logger.Info("Email sent", zap.String("subject", msg.Subject), zap.String("receiver", n.config.Receiver))

	return nil
}

func (n *EmailNotifier) send(ctx context.Context, msg Message) error {
	addr := net.JoinHostPort(n.config.Host, strconv.Itoa(n.config.Port))

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	conn, err := n.dial(ctx, addr)
	if err != nil {
		return err
	}

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, n.config.Host)
	if err != nil {
		_ = conn.Close()

		return err
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", n.config.Sender, n.config.Password, n.config.Host)); err != nil {
		return err
	}

	if err := client.Mail(n.config.Sender); err != nil {
		return err
	}

	if err := client.Rcpt(n.config.Receiver); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}

	if _, err := w.Write(buildEmail(n.config.Sender, n.config.Receiver, msg)); err != nil {
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

func (n *EmailNotifier) dial(ctx context.Context, addr string) (net.Conn, error) {
	if n.config.ImplicitTLS {
		dialer := &tls.Dialer{Config: &tls.Config{ServerName: n.config.Host, MinVersion: tls.VersionTLS12}}

		return dialer.DialContext(ctx, "tcp", addr)
	}

	var dialer net.Dialer

	return dialer.DialContext(ctx, "tcp", addr)
}

func buildEmail(from, to string, msg Message) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))

	return []byte(b.String())
}
