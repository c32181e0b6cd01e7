package service

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"
)

// ErrDeliveryFailure marks an unreachable or failing mail gateway. The
// caller surfaces it to the user instead of retrying.
var ErrDeliveryFailure = errors.New("message delivery failed")

// Notifier delivers a rendered message to an address. Implementations
// must bound the outbound call with a timeout and report failure.
type Notifier interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// DevNotifier logs the message instead of sending it. Used in local
// environments where no mail gateway is configured.
type DevNotifier struct {
	logger *slog.Logger
}

func NewDevNotifier(logger *slog.Logger) *DevNotifier {
	return &DevNotifier{logger: logger}
}

func (n *DevNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	n.logger.InfoContext(ctx, "mail delivery skipped, logging instead",
		"to", to,
		"subject", subject,
		"body_bytes", len(htmlBody),
	)
	return nil
}

// SMTPNotifier sends mail over an authenticated SMTP submission port
// with STARTTLS.
type SMTPNotifier struct {
	host      string
	port      string
	username  string
	password  string
	from      string
	timeout   time.Duration
	tlsConfig *tls.Config
}

func NewSMTPNotifier(host, port, username, password, from string, timeout time.Duration) *SMTPNotifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &SMTPNotifier{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		from:      from,
		timeout:   timeout,
		tlsConfig: &tls.Config{ServerName: host},
	}
}

func (n *SMTPNotifier) Send(ctx context.Context, to, subject, htmlBody string) error {
	deadline := time.Now().Add(n.timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}

	addr := net.JoinHostPort(n.host, n.port)
	conn, err := net.DialTimeout("tcp", addr, time.Until(deadline))
	if err != nil {
		return fmt.Errorf("%w: dial %s: %v", ErrDeliveryFailure, addr, err)
	}
	defer func() { _ = conn.Close() }()
	_ = conn.SetDeadline(deadline)

	client, err := smtp.NewClient(conn, n.host)
	if err != nil {
		return fmt.Errorf("%w: handshake: %v", ErrDeliveryFailure, err)
	}
	defer func() { _ = client.Close() }()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(n.tlsConfig); err != nil {
			return fmt.Errorf("%w: starttls: %v", ErrDeliveryFailure, err)
		}
	}
	if n.username != "" {
		auth := smtp.PlainAuth("", n.username, n.password, n.host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("%w: auth: %v", ErrDeliveryFailure, err)
		}
	}

	if err := client.Mail(n.from); err != nil {
		return fmt.Errorf("%w: mail from: %v", ErrDeliveryFailure, err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("%w: rcpt to: %v", ErrDeliveryFailure, err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("%w: data: %v", ErrDeliveryFailure, err)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n%s\r\n",
		n.from, to, subject, htmlBody)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("%w: write body: %v", ErrDeliveryFailure, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("%w: close body: %v", ErrDeliveryFailure, err)
	}
	return client.Quit()
}
