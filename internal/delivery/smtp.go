package delivery

import (
	"context"
	"crypto/tls"
	"net"
	"net/smtp"
	"time"

	"github.com/rs/zerolog"

	"arstatements/internal/logger"
)

// Mailer sends messages through an authenticated SMTP server. Port 465 uses
// implicit TLS; any other port upgrades with STARTTLS.
type Mailer struct {
	host     string
	port     string
	username string
	password string
	from     string
	timeout  time.Duration
	log      zerolog.Logger
}

// NewMailer creates a mailer. from defaults to username.
func NewMailer(host, port, username, password, from string, timeout time.Duration) *Mailer {
	if from == "" {
		from = username
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Mailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
		timeout:  timeout,
		log:      logger.WithComponent("mailer"),
	}
}

// Send implements Sink.
func (m *Mailer) Send(ctx context.Context, msg Message) error {
	body, err := msg.Encode(m.from, time.Now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	client, err := m.dial(ctx)
	if err != nil {
		return &SendError{Recipient: msg.To, Op: "dial", Err: err}
	}
	defer client.Close()

	if err := client.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
		return &SendError{Recipient: msg.To, Op: "auth", Err: err}
	}
	if err := client.Mail(m.from); err != nil {
		return &SendError{Recipient: msg.To, Op: "mail", Err: err}
	}
	if err := client.Rcpt(msg.To); err != nil {
		return &SendError{Recipient: msg.To, Op: "rcpt", Err: err}
	}
	w, err := client.Data()
	if err != nil {
		return &SendError{Recipient: msg.To, Op: "data", Err: err}
	}
	if _, err := w.Write(body); err != nil {
		return &SendError{Recipient: msg.To, Op: "data", Err: err}
	}
	if err := w.Close(); err != nil {
		return &SendError{Recipient: msg.To, Op: "data", Err: err}
	}
	if err := client.Quit(); err != nil {
		m.log.Debug().Err(err).Msg("SMTP quit failed after delivery")
	}

	m.log.Info().
		Str("recipient", Mask(msg.To)).
		Int("attachments", len(msg.Attachments)).
		Msg("Email sent")
	return nil
}

func (m *Mailer) dial(ctx context.Context) (*smtp.Client, error) {
	addr := net.JoinHostPort(m.host, m.port)
	tlsConfig := &tls.Config{ServerName: m.host}

	var conn net.Conn
	var err error
	if m.port == "465" {
		d := tls.Dialer{Config: tlsConfig}
		conn, err = d.DialContext(ctx, "tcp", addr)
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, m.host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	if m.port != "465" {
		if err := client.StartTLS(tlsConfig); err != nil {
			client.Close()
			return nil, err
		}
	}
	return client, nil
}

// Mask hides most of the local part of an address for logs ("abc......@example.com").
func Mask(addr string) string {
	at := -1
	for i := len(addr) - 1; i >= 0; i-- {
		if addr[i] == '@' {
			at = i
			break
		}
	}
	if at < 0 {
		return addr
	}
	local := addr[:at]
	if len(local) > 3 {
		local = local[:3]
	}
	return local + "......" + addr[at:]
}
